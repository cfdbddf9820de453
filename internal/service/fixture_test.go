package service

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"agrimarket/internal/model"
	"agrimarket/internal/notify"
	"agrimarket/internal/repository"
	"agrimarket/internal/testutil"
)

// market wires real repositories over a throwaway SQLite database
type market struct {
	db       *gorm.DB
	users    repository.UserRepository
	listings repository.ListingRepository
	offerRep repository.OfferRepository
	txRepo   repository.TransactionRepository

	listingSvc ListingService
	offerSvc   *offerService
	dashSvc    DashboardService

	admin, farmer, otherFarmer, buyer, otherBuyer, agent *model.User
}

func newMarket(t *testing.T) *market {
	return newMarketWithMessenger(t, nil)
}

func newMarketWithMessenger(t *testing.T, messenger *notify.Messenger) *market {
	t.Helper()

	db := testutil.NewDB(t)
	m := &market{
		db:       db,
		users:    repository.NewUserRepo(db),
		listings: repository.NewListingRepo(db),
		offerRep: repository.NewOfferRepo(db),
		txRepo:   repository.NewTransactionRepo(db),
	}
	m.listingSvc = NewListingService(m.listings, m.users, db, nil)
	m.offerSvc = NewOfferService(m.offerRep, m.listings, m.txRepo, m.users, db, nil, messenger).(*offerService)
	m.offerSvc.dispatch = func(f func()) { f() }
	m.dashSvc = NewDashboardService(m.users, m.listings, m.txRepo)

	m.admin = testutil.CreateUser(t, db, "Admin", "admin@example.com", model.RoleAdmin, "+910000000001")
	m.farmer = testutil.CreateUser(t, db, "Ravi", "ravi@example.com", model.RoleFarmer, "+910000000002")
	m.otherFarmer = testutil.CreateUser(t, db, "Meena", "meena@example.com", model.RoleFarmer, "+910000000003")
	m.buyer = testutil.CreateUser(t, db, "Asha Traders", "asha@example.com", model.RoleBuyer, "+910000000004")
	m.otherBuyer = testutil.CreateUser(t, db, "Grain Co", "grain@example.com", model.RoleBuyer, "+910000000005")
	m.agent = testutil.CreateUser(t, db, "Field Agent", "fieldagent@example.com", model.RoleAgent, "+910000000006")
	return m
}

func (m *market) list(t *testing.T, by *model.User, req CreateListingRequest) *model.Listing {
	t.Helper()
	if req.Location == "" {
		req.Location = "Nashik"
	}
	l, err := m.listingSvc.CreateListing(by.Actor(), &req)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

func (m *market) offer(t *testing.T, by *model.User, listingID uint, price, qty float64) *model.Offer {
	t.Helper()
	o, err := m.offerSvc.SubmitOffer(context.Background(), by.Actor(), &SubmitOfferRequest{
		ListingID:      listingID,
		OfferPrice:     price,
		QuantityWanted: qty,
	})
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	return o
}

func (m *market) countTransactions(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := m.db.Model(&model.Transaction{}).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}
