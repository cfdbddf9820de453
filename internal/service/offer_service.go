package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/notify"
	"agrimarket/internal/repository"
	"agrimarket/pkg/logger"
)

type OfferService interface {
	SubmitOffer(ctx context.Context, actor model.Actor, req *SubmitOfferRequest) (*model.Offer, error)
	AcceptOffer(ctx context.Context, actor model.Actor, offerID uint) (*model.Transaction, error)
	RejectOffer(ctx context.Context, actor model.Actor, offerID uint) (*model.Offer, error)
	CancelOffer(ctx context.Context, actor model.Actor, offerID uint) (*model.Offer, error)

	GetOffer(id uint) (*model.Offer, error)
	GetOfferDetail(actor model.Actor, id uint) (*OfferDetail, error)
	ListByBuyer(buyerID uint) ([]model.OfferView, error)
	ListForFarmer(farmerID uint) ([]model.OfferView, error)
	ListForAgent(agentID uint) ([]model.OfferView, error)
	ListByStatus(actor model.Actor, status model.OfferStatus) ([]model.OfferView, error)
	ListMine(actor model.Actor) ([]model.OfferView, error)

	// Drain waits for post-commit notifications still in flight
	Drain(ctx context.Context) error
}

// OfferDetail is an offer together with the sale it produced, if any
type OfferDetail struct {
	Offer       model.OfferView    `json:"offer"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

type SubmitOfferRequest struct {
	ListingID      uint    `json:"listing_id" validate:"required"`
	OfferPrice     float64 `json:"offer_price" validate:"gt=0"`
	QuantityWanted float64 `json:"quantity_wanted" validate:"gt=0"`
	Notes          string  `json:"notes" validate:"max=1000"`
}

type offerService struct {
	offerRepo   repository.OfferRepository
	listingRepo repository.ListingRepository
	txRepo      repository.TransactionRepository
	userRepo    repository.UserRepository
	db          *gorm.DB
	events      EventPublisher
	messenger   *notify.Messenger

	// dispatch runs post-commit side effects; tests make it synchronous
	dispatch func(func())
	inflight sync.WaitGroup
}

func NewOfferService(
	oRepo repository.OfferRepository,
	lRepo repository.ListingRepository,
	tRepo repository.TransactionRepository,
	uRepo repository.UserRepository,
	db *gorm.DB,
	events EventPublisher,
	messenger *notify.Messenger,
) OfferService {
	s := &offerService{
		offerRepo:   oRepo,
		listingRepo: lRepo,
		txRepo:      tRepo,
		userRepo:    uRepo,
		db:          db,
		events:      publisherOrNoop(events),
		messenger:   messenger,
	}
	s.dispatch = func(f func()) { go f() }
	return s
}

func (s *offerService) SubmitOffer(ctx context.Context, actor model.Actor, req *SubmitOfferRequest) (*model.Offer, error) {
	if !actor.Role.Can(model.CapOfferSubmit) {
		return nil, marketerrors.ErrForbidden
	}
	req.Notes = strings.TrimSpace(req.Notes)
	req.QuantityWanted = model.RoundQuantity(req.QuantityWanted)
	if err := validate(req); err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.FindByID(req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != model.ListingAvailable {
		return nil, marketerrors.ErrInvalidState
	}

	// Quantity is deliberately not checked here; the owner judges it at acceptance
	offer := &model.Offer{
		BuyerID:        actor.UserID,
		ListingID:      listing.ID,
		CropName:       listing.CropName,
		OfferPrice:     req.OfferPrice,
		QuantityWanted: req.QuantityWanted,
		Notes:          req.Notes,
		Status:         model.OfferPending,
	}
	offer.CreatedBy = actor.AuditName()
	offer.UpdatedBy = actor.AuditName()

	if err := s.offerRepo.Create(offer); err != nil {
		return nil, err
	}

	s.events.Publish(EventOfferSubmitted, map[string]any{
		"offer_id":        offer.ID,
		"listing_id":      listing.ID,
		"crop_name":       offer.CropName,
		"offer_price":     offer.OfferPrice,
		"quantity_wanted": offer.QuantityWanted,
		"buyer":           actor.Name,
	})
	s.afterCommit(ctx, func(ctx context.Context) {
		buyer, err := s.userRepo.FindByID(offer.BuyerID)
		if err != nil {
			logger.Warn("Offer notification skipped", map[string]any{"offer_id": offer.ID, "error": err.Error()})
			return
		}
		s.messenger.Notify(ctx, buyerSubmittedMessage(offer, listing), recipientOf(buyer))
		s.messenger.Notify(ctx, farmerSubmittedMessage(offer, listing, buyer), farmerRecipient(listing))
		if listing.Agent != nil {
			s.messenger.Notify(ctx, agentSubmittedMessage(offer, listing, buyer), recipientOf(listing.Agent))
		}
	})

	return offer, nil
}

// AcceptOffer marks the offer accepted, records the sale and takes the quantity
// off the listing in one database transaction. Nothing changes unless all three succeed.
func (s *offerService) AcceptOffer(ctx context.Context, actor model.Actor, offerID uint) (*model.Transaction, error) {
	var (
		record  *model.Transaction
		offer   *model.Offer
		listing *model.Listing
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		offer, listing, err = s.lockPending(tx, actor, offerID)
		if err != nil {
			return err
		}
		if listing.Status != model.ListingAvailable {
			return marketerrors.ErrInvalidState
		}
		// Over-commitment is refused; the offer stays pending
		if model.QuantityExceeds(offer.QuantityWanted, listing.Quantity) {
			return marketerrors.ErrInsufficientQuantity
		}

		if err := s.offerRepo.Transition(tx, offer.ID, model.OfferAccepted, actor.AuditName()); err != nil {
			return err
		}

		record = &model.Transaction{
			OfferID:      offer.ID,
			ListingID:    listing.ID,
			BuyerID:      offer.BuyerID,
			FarmerID:     listing.FarmerID,
			FarmerName:   listing.FarmerName,
			AgentID:      listing.AgentID,
			CropName:     offer.CropName,
			Quantity:     offer.QuantityWanted,
			PricePerUnit: offer.OfferPrice,
			TotalAmount:  model.TotalFor(offer.OfferPrice, offer.QuantityWanted),
			Notes:        offer.Notes,
			Status:       model.TxCompleted,
		}
		record.CreatedBy = actor.AuditName()
		record.UpdatedBy = actor.AuditName()
		if err := s.txRepo.Create(tx, record); err != nil {
			return err
		}

		return s.listingRepo.DecrementQuantity(tx, listing.ID, offer.QuantityWanted, actor.AuditName())
	})
	if err != nil {
		return nil, err
	}

	offer.Status = model.OfferAccepted
	s.events.Publish(EventOfferAccepted, map[string]any{
		"offer_id":       offer.ID,
		"listing_id":     listing.ID,
		"transaction_id": record.ID,
		"total_amount":   record.TotalAmount,
		"remaining":      model.RemainingQuantity(listing.Quantity, offer.QuantityWanted),
	})
	s.afterCommit(ctx, func(ctx context.Context) {
		s.notifyBuyer(ctx, offer, acceptedMessage(offer, listing))
	})

	return record, nil
}

func (s *offerService) RejectOffer(ctx context.Context, actor model.Actor, offerID uint) (*model.Offer, error) {
	offer, err := s.respond(actor, offerID, model.OfferRejected)
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventOfferRejected, map[string]any{"offer_id": offer.ID, "listing_id": offer.ListingID})
	s.afterCommit(ctx, func(ctx context.Context) {
		s.notifyBuyer(ctx, offer, rejectedMessage(offer))
	})
	return offer, nil
}

// CancelOffer withdraws a pending offer; only its buyer or an admin may do it
func (s *offerService) CancelOffer(_ context.Context, actor model.Actor, offerID uint) (*model.Offer, error) {
	var offer *model.Offer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		offer, err = s.offerRepo.LockByID(tx, offerID)
		if err != nil {
			return err
		}
		if actor.Role != model.RoleAdmin && offer.BuyerID != actor.UserID {
			return marketerrors.ErrForbidden
		}
		if offer.Status != model.OfferPending {
			return marketerrors.ErrInvalidState
		}
		return s.offerRepo.Transition(tx, offer.ID, model.OfferCancelled, actor.AuditName())
	})
	if err != nil {
		return nil, err
	}
	offer.Status = model.OfferCancelled
	s.events.Publish(EventOfferCancelled, map[string]any{"offer_id": offer.ID, "listing_id": offer.ListingID})
	return offer, nil
}

// respond moves a pending offer to status on behalf of the listing's owner, agent or an admin
func (s *offerService) respond(actor model.Actor, offerID uint, status model.OfferStatus) (*model.Offer, error) {
	var offer *model.Offer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		offer, _, err = s.lockPending(tx, actor, offerID)
		if err != nil {
			return err
		}
		return s.offerRepo.Transition(tx, offer.ID, status, actor.AuditName())
	})
	if err != nil {
		return nil, err
	}
	offer.Status = status
	return offer, nil
}

// lockPending locks the offer and its listing, then checks authority and state
func (s *offerService) lockPending(tx *gorm.DB, actor model.Actor, offerID uint) (*model.Offer, *model.Listing, error) {
	if !actor.Role.Can(model.CapOfferRespond) {
		return nil, nil, marketerrors.ErrForbidden
	}
	offer, err := s.offerRepo.LockByID(tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	listing, err := s.listingRepo.LockByID(tx, offer.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if !listing.ManagedBy(actor) {
		return nil, nil, marketerrors.ErrForbidden
	}
	if offer.Status != model.OfferPending {
		return nil, nil, marketerrors.ErrInvalidState
	}
	return offer, listing, nil
}

func (s *offerService) GetOffer(id uint) (*model.Offer, error) {
	return s.offerRepo.FindByID(id)
}

// GetOfferDetail returns the offer and its transaction to the buyer who made
// it, whoever manages the listing, or an admin
func (s *offerService) GetOfferDetail(actor model.Actor, id uint) (*OfferDetail, error) {
	offer, err := s.offerRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	visible := actor.Role == model.RoleAdmin ||
		(actor.Role == model.RoleBuyer && offer.BuyerID == actor.UserID) ||
		(offer.Listing != nil && offer.Listing.ManagedBy(actor))
	if !visible {
		return nil, marketerrors.ErrForbidden
	}

	detail := &OfferDetail{Offer: offer.ToView()}
	if offer.Status != model.OfferAccepted {
		return detail, nil
	}
	record, err := s.txRepo.FindByOfferID(offer.ID)
	if err != nil {
		return nil, err
	}
	detail.Transaction = record
	return detail, nil
}

func (s *offerService) ListByBuyer(buyerID uint) ([]model.OfferView, error) {
	return views(s.offerRepo.ListByBuyer(buyerID))
}

func (s *offerService) ListForFarmer(farmerID uint) ([]model.OfferView, error) {
	return views(s.offerRepo.ListForFarmer(farmerID))
}

func (s *offerService) ListForAgent(agentID uint) ([]model.OfferView, error) {
	return views(s.offerRepo.ListForAgent(agentID))
}

func (s *offerService) ListByStatus(actor model.Actor, status model.OfferStatus) ([]model.OfferView, error) {
	if !actor.Role.Can(model.CapOfferViewAll) {
		return nil, marketerrors.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown offer status %q", marketerrors.ErrValidation, status)
	}
	return views(s.offerRepo.ListByStatus(status))
}

// ListMine returns the offers relevant to the caller's role
func (s *offerService) ListMine(actor model.Actor) ([]model.OfferView, error) {
	switch actor.Role {
	case model.RoleBuyer:
		return s.ListByBuyer(actor.UserID)
	case model.RoleFarmer:
		return s.ListForFarmer(actor.UserID)
	case model.RoleAgent:
		return s.ListForAgent(actor.UserID)
	case model.RoleAdmin:
		return s.ListByStatus(actor, "")
	}
	return nil, marketerrors.ErrForbidden
}

func views(offers []model.Offer, err error) ([]model.OfferView, error) {
	if err != nil {
		return nil, err
	}
	out := make([]model.OfferView, 0, len(offers))
	for i := range offers {
		out = append(out, offers[i].ToView())
	}
	return out, nil
}

// afterCommit runs notification work outside any store transaction.
// The request context may be gone by then, so only its values are kept.
func (s *offerService) afterCommit(ctx context.Context, f func(ctx context.Context)) {
	if s.messenger == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	s.dispatch(func() {
		defer s.inflight.Done()
		f(detached)
	})
}

func (s *offerService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *offerService) notifyBuyer(ctx context.Context, offer *model.Offer, body string) {
	buyer, err := s.userRepo.FindByID(offer.BuyerID)
	if err != nil {
		logger.Warn("Buyer notification skipped", map[string]any{"offer_id": offer.ID, "error": err.Error()})
		return
	}
	s.messenger.Notify(ctx, body, recipientOf(buyer))
}

func recipientOf(u *model.User) notify.Recipient {
	return notify.Recipient{Phone: u.Phone, Language: u.Language()}
}

// farmerRecipient prefers the farmer account's language when the farmer is registered
func farmerRecipient(l *model.Listing) notify.Recipient {
	r := notify.Recipient{Phone: l.FarmerPhone, Language: "en"}
	if l.Farmer != nil {
		r.Language = l.Farmer.Language()
		if r.Phone == "" {
			r.Phone = l.Farmer.Phone
		}
	}
	return r
}
