package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/mocks"
	"agrimarket/internal/model"
	"agrimarket/internal/notify"
	"agrimarket/internal/translate"
)

func TestAcceptOffer_PartialQuantityKeepsListingAvailable(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "Rice", Quantity: 1000, ExpectedPrice: 45})
	o := m.offer(t, m.buyer, l.ID, 44, 400)

	tx, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, 17600.0, tx.TotalAmount)
	require.Equal(t, 400.0, tx.Quantity)
	require.Equal(t, 44.0, tx.PricePerUnit)
	require.Equal(t, m.buyer.ID, tx.BuyerID)
	require.Equal(t, m.farmer.ID, *tx.FarmerID)
	require.Equal(t, "Ravi", tx.FarmerName)
	require.Equal(t, model.TxCompleted, tx.Status)

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 600.0, listing.Quantity)
	require.Equal(t, model.ListingAvailable, listing.Status)

	offer, err := m.offerSvc.GetOffer(o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OfferAccepted, offer.Status)
	require.Equal(t, int64(1), m.countTransactions(t))
}

func TestAcceptOffer_FullQuantityMarksSold(t *testing.T) {
	m := newMarket(t)

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "wheat", Quantity: 100, ExpectedPrice: 22})
	o := m.offer(t, m.buyer, l.ID, 21.5, 100)

	tx, err := m.offerSvc.AcceptOffer(context.Background(), m.farmer.Actor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, 2150.0, tx.TotalAmount)

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, listing.Quantity)
	require.Equal(t, model.ListingSold, listing.Status)

	// a sold listing takes no new offers
	_, err = m.offerSvc.SubmitOffer(context.Background(), m.otherBuyer.Actor(), &SubmitOfferRequest{ListingID: l.ID, OfferPrice: 20, QuantityWanted: 1})
	require.ErrorIs(t, err, marketerrors.ErrInvalidState)
}

func TestAcceptOffer_FractionalSellOut(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "saffron", Quantity: 0.3, ExpectedPrice: 250000})
	first := m.offer(t, m.buyer, l.ID, 250000, 0.1)
	second := m.offer(t, m.otherBuyer, l.ID, 250000, 0.2)

	_, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), first.ID)
	require.NoError(t, err)

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 0.2, listing.Quantity)

	tx, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), second.ID)
	require.NoError(t, err)
	require.Equal(t, 50000.0, tx.TotalAmount)

	listing, err = m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, listing.Quantity)
	require.Equal(t, model.ListingSold, listing.Status)
	require.Equal(t, int64(2), m.countTransactions(t))
}

func TestQuantitiesAreRoundedOnEntry(t *testing.T) {
	m := newMarket(t)

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "saffron", Quantity: 0.30000000000000004, ExpectedPrice: 250000})
	require.Equal(t, 0.3, l.Quantity)

	o := m.offer(t, m.buyer, l.ID, 250000, 0.1004)
	require.Equal(t, 0.1, o.QuantityWanted)

	_, err := m.offerSvc.SubmitOffer(context.Background(), m.buyer.Actor(), &SubmitOfferRequest{ListingID: l.ID, OfferPrice: 1, QuantityWanted: 0.0004})
	require.ErrorIs(t, err, marketerrors.ErrValidation)
}

func TestAcceptOffer_TerminalOfferFails(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "maize", Quantity: 500, ExpectedPrice: 20})
	accepted := m.offer(t, m.buyer, l.ID, 19, 100)
	rejected := m.offer(t, m.buyer, l.ID, 15, 100)
	cancelled := m.offer(t, m.otherBuyer, l.ID, 18, 100)

	_, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), accepted.ID)
	require.NoError(t, err)
	_, err = m.offerSvc.RejectOffer(ctx, m.farmer.Actor(), rejected.ID)
	require.NoError(t, err)
	_, err = m.offerSvc.CancelOffer(ctx, m.otherBuyer.Actor(), cancelled.ID)
	require.NoError(t, err)

	for _, id := range []uint{accepted.ID, rejected.ID, cancelled.ID} {
		_, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), id)
		require.ErrorIs(t, err, marketerrors.ErrInvalidState)
		_, err = m.offerSvc.RejectOffer(ctx, m.farmer.Actor(), id)
		require.ErrorIs(t, err, marketerrors.ErrInvalidState)
	}

	require.Equal(t, int64(1), m.countTransactions(t))
	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 400.0, listing.Quantity)
}

func TestAcceptOffer_NotFound(t *testing.T) {
	m := newMarket(t)

	_, err := m.offerSvc.AcceptOffer(context.Background(), m.admin.Actor(), 9999)
	require.ErrorIs(t, err, marketerrors.ErrNotFound)
}

func TestRejectOffer_LeavesListingUntouched(t *testing.T) {
	m := newMarket(t)

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "onion", Quantity: 80, ExpectedPrice: 30})
	o := m.offer(t, m.buyer, l.ID, 25, 80)

	got, err := m.offerSvc.RejectOffer(context.Background(), m.farmer.Actor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OfferRejected, got.Status)

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 80.0, listing.Quantity)
	require.Equal(t, model.ListingAvailable, listing.Status)
	require.Equal(t, int64(0), m.countTransactions(t))
}

func TestAcceptOffer_OverCommitmentIsRefused(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "tomato", Quantity: 50, ExpectedPrice: 40})
	first := m.offer(t, m.buyer, l.ID, 40, 30)
	second := m.offer(t, m.otherBuyer, l.ID, 41, 30)

	_, err := m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), first.ID)
	require.NoError(t, err)

	_, err = m.offerSvc.AcceptOffer(ctx, m.farmer.Actor(), second.ID)
	require.ErrorIs(t, err, marketerrors.ErrInsufficientQuantity)

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 20.0, listing.Quantity)
	require.Equal(t, model.ListingAvailable, listing.Status)

	pending, err := m.offerSvc.GetOffer(second.ID)
	require.NoError(t, err)
	require.Equal(t, model.OfferPending, pending.Status)
	require.Equal(t, int64(1), m.countTransactions(t))

	// the owner can still decline it
	_, err = m.offerSvc.RejectOffer(ctx, m.farmer.Actor(), second.ID)
	require.NoError(t, err)
}

func TestAcceptOffer_ConcurrentAcceptancesNeverOversell(t *testing.T) {
	m := newMarket(t)

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "cotton", Quantity: 50, ExpectedPrice: 60})
	var offers []*model.Offer
	for i := 0; i < 5; i++ {
		offers = append(offers, m.offer(t, m.buyer, l.ID, 60, 20))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for _, o := range offers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := m.offerSvc.AcceptOffer(context.Background(), m.farmer.Actor(), id)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				failures = append(failures, err)
			}
		}(o.ID)
	}
	wg.Wait()

	require.Equal(t, 2, succeeded)
	for _, err := range failures {
		require.ErrorIs(t, err, marketerrors.ErrInsufficientQuantity)
	}

	listing, err := m.listings.FindByID(l.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, listing.Quantity)
	require.Equal(t, int64(2), m.countTransactions(t))
}

func TestAcceptOffer_RollsBackOnStorageFailure(t *testing.T) {
	tests := []struct {
		name    string
		install func(db *gorm.DB)
	}{
		{
			name: "transaction_insert_fails",
			install: func(db *gorm.DB) {
				db.Callback().Create().Before("gorm:create").Register("test:fail_transactions", func(d *gorm.DB) {
					if d.Statement.Table == "transactions" {
						d.AddError(errors.New("injected insert failure"))
					}
				})
			},
		},
		{
			name: "listing_update_fails",
			install: func(db *gorm.DB) {
				db.Callback().Update().Before("gorm:update").Register("test:fail_listings", func(d *gorm.DB) {
					if d.Statement.Table == "listings" {
						d.AddError(errors.New("injected update failure"))
					}
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMarket(t)
			l := m.list(t, m.farmer, CreateListingRequest{CropName: "rice", Quantity: 100, ExpectedPrice: 45})
			o := m.offer(t, m.buyer, l.ID, 44, 40)

			tt.install(m.db)

			_, err := m.offerSvc.AcceptOffer(context.Background(), m.farmer.Actor(), o.ID)
			require.ErrorIs(t, err, marketerrors.ErrStorage)

			offer, err := m.offerSvc.GetOffer(o.ID)
			require.NoError(t, err)
			require.Equal(t, model.OfferPending, offer.Status)

			listing, err := m.listings.FindByID(l.ID)
			require.NoError(t, err)
			require.Equal(t, 100.0, listing.Quantity)
			require.Equal(t, int64(0), m.countTransactions(t))
		})
	}
}

func TestOfferResponses_Authorization(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	own := m.list(t, m.farmer, CreateListingRequest{CropName: "rice", Quantity: 100, ExpectedPrice: 45})
	viaAgent := m.list(t, m.agent, CreateListingRequest{CropName: "wheat", Quantity: 100, ExpectedPrice: 22, FarmerName: "Offline Kisan", FarmerPhone: "+919999999999"})

	tests := []struct {
		name        string
		listing     *model.Listing
		actor       *model.User
		expectedErr error
	}{
		{name: "owner_farmer", listing: own, actor: m.farmer},
		{name: "admin", listing: own, actor: m.admin},
		{name: "listing_agent", listing: viaAgent, actor: m.agent},
		{name: "other_farmer", listing: own, actor: m.otherFarmer, expectedErr: marketerrors.ErrForbidden},
		{name: "buyer", listing: own, actor: m.buyer, expectedErr: marketerrors.ErrForbidden},
		{name: "agent_not_on_listing", listing: own, actor: m.agent, expectedErr: marketerrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := m.offer(t, m.buyer, tt.listing.ID, 10, 1)
			_, err := m.offerSvc.AcceptOffer(ctx, tt.actor.Actor(), o.ID)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				got, err := m.offerSvc.GetOffer(o.ID)
				require.NoError(t, err)
				require.Equal(t, model.OfferPending, got.Status)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAcceptOffer_OffPlatformFarmerTransaction(t *testing.T) {
	m := newMarket(t)

	l := m.list(t, m.agent, CreateListingRequest{CropName: "millet", Quantity: 10, ExpectedPrice: 30, FarmerName: "Offline Kisan", FarmerPhone: "+919999999999"})
	require.Nil(t, l.FarmerID)
	require.Equal(t, m.agent.ID, *l.AgentID)

	o := m.offer(t, m.buyer, l.ID, 30, 10)
	tx, err := m.offerSvc.AcceptOffer(context.Background(), m.agent.Actor(), o.ID)
	require.NoError(t, err)
	require.Nil(t, tx.FarmerID)
	require.Equal(t, "Offline Kisan", tx.FarmerName)
	require.Equal(t, m.agent.ID, *tx.AgentID)
}

func TestCancelOffer(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "potato", Quantity: 100, ExpectedPrice: 12})
	o := m.offer(t, m.buyer, l.ID, 11, 10)

	_, err := m.offerSvc.CancelOffer(ctx, m.otherBuyer.Actor(), o.ID)
	require.ErrorIs(t, err, marketerrors.ErrForbidden)
	_, err = m.offerSvc.CancelOffer(ctx, m.farmer.Actor(), o.ID)
	require.ErrorIs(t, err, marketerrors.ErrForbidden)

	got, err := m.offerSvc.CancelOffer(ctx, m.buyer.Actor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OfferCancelled, got.Status)

	_, err = m.offerSvc.CancelOffer(ctx, m.buyer.Actor(), o.ID)
	require.ErrorIs(t, err, marketerrors.ErrInvalidState)
}

func TestSubmitOffer_Validation(t *testing.T) {
	m := newMarket(t)
	l := m.list(t, m.farmer, CreateListingRequest{CropName: "rice", Quantity: 10, ExpectedPrice: 45})

	tests := []struct {
		name        string
		actor       *model.User
		req         SubmitOfferRequest
		expectedErr error
	}{
		{name: "farmer_cannot_bid", actor: m.farmer, req: SubmitOfferRequest{ListingID: l.ID, OfferPrice: 40, QuantityWanted: 1}, expectedErr: marketerrors.ErrForbidden},
		{name: "zero_price", actor: m.buyer, req: SubmitOfferRequest{ListingID: l.ID, OfferPrice: 0, QuantityWanted: 1}, expectedErr: marketerrors.ErrValidation},
		{name: "negative_quantity", actor: m.buyer, req: SubmitOfferRequest{ListingID: l.ID, OfferPrice: 40, QuantityWanted: -1}, expectedErr: marketerrors.ErrValidation},
		{name: "missing_listing", actor: m.buyer, req: SubmitOfferRequest{ListingID: 9999, OfferPrice: 40, QuantityWanted: 1}, expectedErr: marketerrors.ErrNotFound},
		{name: "more_than_listed_is_allowed", actor: m.buyer, req: SubmitOfferRequest{ListingID: l.ID, OfferPrice: 40, QuantityWanted: 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			o, err := m.offerSvc.SubmitOffer(context.Background(), tt.actor.Actor(), &req)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.OfferPending, o.Status)
			require.Equal(t, "rice", o.CropName)
		})
	}
}

func TestListMine_RoleProjections(t *testing.T) {
	m := newMarket(t)

	own := m.list(t, m.farmer, CreateListingRequest{CropName: "rice", Quantity: 100, ExpectedPrice: 45})
	viaAgent := m.list(t, m.agent, CreateListingRequest{CropName: "wheat", Quantity: 100, ExpectedPrice: 22, FarmerID: &m.otherFarmer.ID})
	m.offer(t, m.buyer, own.ID, 44, 10)
	m.offer(t, m.buyer, viaAgent.ID, 21, 10)
	m.offer(t, m.otherBuyer, viaAgent.ID, 20, 5)

	counts := map[*model.User]int{m.buyer: 2, m.otherBuyer: 1, m.farmer: 1, m.otherFarmer: 2, m.agent: 2, m.admin: 3}
	for u, expected := range counts {
		got, err := m.offerSvc.ListMine(u.Actor())
		require.NoError(t, err, u.Name)
		require.Len(t, got, expected, u.Name)
	}

	mine, err := m.offerSvc.ListMine(m.farmer.Actor())
	require.NoError(t, err)
	require.Equal(t, "Asha Traders", mine[0].BuyerName)
	require.Equal(t, "Ravi", mine[0].FarmerName)
	require.Equal(t, 45.0, mine[0].ExpectedPrice)

	_, err = m.offerSvc.ListByStatus(m.buyer.Actor(), "")
	require.ErrorIs(t, err, marketerrors.ErrForbidden)
	_, err = m.offerSvc.ListByStatus(m.admin.Actor(), "bogus")
	require.ErrorIs(t, err, marketerrors.ErrValidation)

	pending, err := m.offerSvc.ListByStatus(m.admin.Actor(), model.OfferPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestOfferNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	translator := mocks.NewMockTranslator(ctrl)
	m := newMarketWithMessenger(t, notify.NewMessenger(notifier, translator, 0))

	require.NoError(t, m.db.Model(&model.User{}).Where("id = ?", m.otherFarmer.ID).Update("preferred_language", "hi").Error)
	l := m.list(t, m.agent, CreateListingRequest{CropName: "wheat", Quantity: 100, ExpectedPrice: 22, FarmerID: &m.otherFarmer.ID})

	// submit: buyer confirmation, farmer in Hindi, agent
	notifier.EXPECT().Send(gomock.Any(), m.buyer.Phone, gomock.Any()).Return(notify.Receipt{ID: "1"}, nil)
	translator.EXPECT().Translate(gomock.Any(), gomock.Any(), "hi").Return("नया प्रस्ताव", nil)
	notifier.EXPECT().Send(gomock.Any(), m.otherFarmer.Phone, "नया प्रस्ताव").Return(notify.Receipt{ID: "2"}, nil)
	notifier.EXPECT().Send(gomock.Any(), m.agent.Phone, gomock.Any()).Return(notify.Receipt{ID: "3"}, nil)
	o := m.offer(t, m.buyer, l.ID, 21, 10)

	// accept: buyer only; a gateway failure is logged, not returned
	notifier.EXPECT().Send(gomock.Any(), m.buyer.Phone, gomock.Any()).Return(notify.Receipt{}, errors.New("gateway down"))
	_, err := m.offerSvc.AcceptOffer(context.Background(), m.agent.Actor(), o.ID)
	require.NoError(t, err)
}

func TestGetOfferDetail(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l := m.list(t, m.agent, CreateListingRequest{CropName: "wheat", Quantity: 100, ExpectedPrice: 22, FarmerID: &m.otherFarmer.ID})
	o := m.offer(t, m.buyer, l.ID, 21, 10)

	pending, err := m.offerSvc.GetOfferDetail(m.buyer.Actor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, model.OfferPending, pending.Offer.Status)
	require.Nil(t, pending.Transaction)

	record, err := m.offerSvc.AcceptOffer(ctx, m.agent.Actor(), o.ID)
	require.NoError(t, err)

	tests := []struct {
		name        string
		actor       *model.User
		expectedErr error
	}{
		{name: "buyer", actor: m.buyer},
		{name: "listing_agent", actor: m.agent},
		{name: "listing_farmer", actor: m.otherFarmer},
		{name: "admin", actor: m.admin},
		{name: "other_buyer", actor: m.otherBuyer, expectedErr: marketerrors.ErrForbidden},
		{name: "other_farmer", actor: m.farmer, expectedErr: marketerrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := m.offerSvc.GetOfferDetail(tt.actor.Actor(), o.ID)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.OfferAccepted, detail.Offer.Status)
			require.NotNil(t, detail.Transaction)
			require.Equal(t, record.ID, detail.Transaction.ID)
			require.Equal(t, 210.0, detail.Transaction.TotalAmount)
		})
	}

	_, err = m.offerSvc.GetOfferDetail(m.admin.Actor(), 9999)
	require.ErrorIs(t, err, marketerrors.ErrNotFound)
}

func TestDrain_WaitsForInFlightNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	m := newMarketWithMessenger(t, notify.NewMessenger(notifier, translate.Noop{}, 0))

	var (
		blocking bool
		started  = make(chan struct{}, 1)
		release  = make(chan struct{})
	)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string) (notify.Receipt, error) {
			if blocking {
				started <- struct{}{}
				<-release
			}
			return notify.Receipt{ID: "sms"}, nil
		}).AnyTimes()

	l := m.list(t, m.farmer, CreateListingRequest{CropName: "rice", Quantity: 100, ExpectedPrice: 45})
	o := m.offer(t, m.buyer, l.ID, 44, 10)
	require.NoError(t, m.offerSvc.Drain(context.Background()))

	blocking = true
	m.offerSvc.dispatch = func(f func()) { go f() }
	_, err := m.offerSvc.AcceptOffer(context.Background(), m.farmer.Actor(), o.ID)
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, m.offerSvc.Drain(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, m.offerSvc.Drain(context.Background()))
}
