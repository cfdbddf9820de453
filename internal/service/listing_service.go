package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
)

type ListingService interface {
	CreateListing(actor model.Actor, req *CreateListingRequest) (*model.Listing, error)
	ListListings(filter repository.ListingFilter) ([]model.Listing, error)
	GetListing(id uint) (*model.Listing, error)
	SetStatus(actor model.Actor, id uint, status model.ListingStatus) (*model.Listing, error)
}

// CreateListingRequest is posted by a farmer for themselves, or by an agent
// naming either a registered farmer (FarmerID) or an off-platform one (FarmerName/FarmerPhone).
type CreateListingRequest struct {
	CropName      string  `json:"crop_name" validate:"required,max=100"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	ExpectedPrice float64 `json:"expected_price" validate:"gt=0"`
	Description   string  `json:"description" validate:"max=2000"`
	Location      string  `json:"location" validate:"required,max=255"`
	FarmerID      *uint   `json:"farmer_id"`
	FarmerName    string  `json:"farmer_name" validate:"max=255"`
	FarmerPhone   string  `json:"farmer_phone" validate:"max=20"`
}

type listingService struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	db          *gorm.DB
	events      EventPublisher
}

func NewListingService(lRepo repository.ListingRepository, uRepo repository.UserRepository, db *gorm.DB, events EventPublisher) ListingService {
	return &listingService{
		listingRepo: lRepo,
		userRepo:    uRepo,
		db:          db,
		events:      publisherOrNoop(events),
	}
}

func (s *listingService) CreateListing(actor model.Actor, req *CreateListingRequest) (*model.Listing, error) {
	req.CropName = strings.ToLower(strings.TrimSpace(req.CropName))
	req.Quantity = model.RoundQuantity(req.Quantity)
	if err := validate(req); err != nil {
		return nil, err
	}

	owner, err := s.resolveOwner(actor, req)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		FarmerID:      owner.FarmerID,
		FarmerName:    owner.Name,
		FarmerPhone:   owner.Phone,
		AgentID:       owner.CreatedByAgent,
		CropName:      req.CropName,
		Quantity:      req.Quantity,
		ExpectedPrice: req.ExpectedPrice,
		Description:   req.Description,
		Location:      strings.TrimSpace(req.Location),
		Status:        model.ListingAvailable,
	}
	listing.CreatedBy = actor.AuditName()
	listing.UpdatedBy = actor.AuditName()

	if err := s.listingRepo.Create(listing); err != nil {
		return nil, err
	}

	s.events.Publish(EventListingCreated, map[string]any{
		"listing_id":     listing.ID,
		"crop_name":      listing.CropName,
		"quantity":       listing.Quantity,
		"expected_price": listing.ExpectedPrice,
		"farmer_name":    listing.FarmerName,
		"message":        fmt.Sprintf("%s listed %skg of %s", actor.Name, quantity(listing.Quantity), listing.CropName),
	})
	return listing, nil
}

// resolveOwner works out who the listing belongs to from the caller's role
func (s *listingService) resolveOwner(actor model.Actor, req *CreateListingRequest) (model.ListingOwner, error) {
	switch actor.Role {
	case model.RoleFarmer:
		owner := model.RegisteredFarmer(actor.UserID)
		return s.withAccountDetails(owner)

	case model.RoleAgent:
		if req.FarmerID != nil {
			return s.withAccountDetails(model.RegisteredFarmer(*req.FarmerID).ViaAgent(actor.UserID))
		}
		name := strings.TrimSpace(req.FarmerName)
		if name == "" {
			return model.ListingOwner{}, fmt.Errorf("%w: farmer_id or farmer_name is required", marketerrors.ErrValidation)
		}
		return model.UnregisteredFarmer(name, strings.TrimSpace(req.FarmerPhone)).ViaAgent(actor.UserID), nil

	case model.RoleAdmin, model.RoleBuyer:
		return model.ListingOwner{}, marketerrors.ErrForbidden
	}
	return model.ListingOwner{}, marketerrors.ErrForbidden
}

// withAccountDetails copies the registered farmer's name and phone onto the owner
func (s *listingService) withAccountDetails(owner model.ListingOwner) (model.ListingOwner, error) {
	farmer, err := s.userRepo.FindByID(*owner.FarmerID)
	if err != nil {
		if errors.Is(err, marketerrors.ErrNotFound) {
			return owner, fmt.Errorf("%w: farmer account %d does not exist", marketerrors.ErrValidation, *owner.FarmerID)
		}
		return owner, err
	}
	if farmer.Role != model.RoleFarmer {
		return owner, fmt.Errorf("%w: user %d is not a farmer", marketerrors.ErrValidation, farmer.ID)
	}
	owner.Name = farmer.Name
	owner.Phone = farmer.Phone
	return owner, nil
}

func (s *listingService) ListListings(filter repository.ListingFilter) ([]model.Listing, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown listing status %q", marketerrors.ErrValidation, filter.Status)
	}
	return s.listingRepo.List(filter)
}

func (s *listingService) GetListing(id uint) (*model.Listing, error) {
	return s.listingRepo.FindByID(id)
}

func (s *listingService) SetStatus(actor model.Actor, id uint, status model.ListingStatus) (*model.Listing, error) {
	if !status.Valid() || !status.Terminal() {
		return nil, fmt.Errorf("%w: listing status must be sold or cancelled", marketerrors.ErrValidation)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		listing, err := s.listingRepo.LockByID(tx, id)
		if err != nil {
			return err
		}
		if !listing.ManagedBy(actor) {
			return marketerrors.ErrForbidden
		}
		if !listing.Status.CanTransitionTo(status) {
			return marketerrors.ErrInvalidState
		}
		return s.listingRepo.SetStatus(tx, id, status, actor.AuditName())
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.listingRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventListingStatus, map[string]any{
		"listing_id": updated.ID,
		"status":     updated.Status,
		"crop_name":  updated.CropName,
	})
	return updated, nil
}
