package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
)

// ListingFilter narrows ListListings. A zero Status means available.
type ListingFilter struct {
	Status   model.ListingStatus
	FarmerID *uint
	AgentID  *uint
	Crop     string
}

type ListingRepository interface {
	Create(listing *model.Listing) error
	FindByID(id uint) (*model.Listing, error)
	List(filter ListingFilter) ([]model.Listing, error)
	CountByStatus(status model.ListingStatus) (int64, error)
	LockByID(tx *gorm.DB, id uint) (*model.Listing, error)
	SetStatus(tx *gorm.DB, id uint, to model.ListingStatus, updatedBy string) error
	DecrementQuantity(tx *gorm.DB, id uint, quantity float64, updatedBy string) error
}

type listingRepo struct {
	db *gorm.DB
}

func NewListingRepo(db *gorm.DB) ListingRepository {
	return &listingRepo{db}
}

func (r *listingRepo) Create(listing *model.Listing) error {
	return storageErr(r.db.Create(listing).Error)
}

func (r *listingRepo) FindByID(id uint) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.Preload("Farmer").Preload("Agent").First(&listing, id).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrListingNotFound)
	}
	return &listing, nil
}

func (r *listingRepo) List(filter ListingFilter) ([]model.Listing, error) {
	status := filter.Status
	if status == "" {
		status = model.ListingAvailable
	}

	q := r.db.Preload("Farmer").Where("status = ?", status)
	if filter.FarmerID != nil {
		q = q.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.AgentID != nil {
		q = q.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.Crop != "" {
		q = q.Where("LOWER(crop_name) = LOWER(?)", filter.Crop)
	}

	var listings []model.Listing
	if err := q.Order("created_at DESC, id DESC").Find(&listings).Error; err != nil {
		return nil, storageErr(err)
	}
	return listings, nil
}

func (r *listingRepo) CountByStatus(status model.ListingStatus) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Listing{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

// LockByID reads the listing with a row lock held until tx ends
func (r *listingRepo) LockByID(tx *gorm.DB, id uint) (*model.Listing, error) {
	var listing model.Listing
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, id).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrListingNotFound)
	}
	return &listing, nil
}

// SetStatus moves an available listing into a terminal status.
// ErrInvalidState is returned when the row is no longer available.
func (r *listingRepo) SetStatus(tx *gorm.DB, id uint, to model.ListingStatus, updatedBy string) error {
	res := tx.Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingAvailable).
		Updates(map[string]any{"status": to, "updated_by": updatedBy})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected != 1 {
		return marketerrors.ErrInvalidState
	}
	return nil
}

// DecrementQuantity subtracts quantity and marks the listing sold once nothing remains.
// The remainder is computed at model.QuantityScale from the locked row, so an
// exact sell-out of fractional quantities lands on zero. The guard refuses to
// take the quantity below zero.
func (r *listingRepo) DecrementQuantity(tx *gorm.DB, id uint, quantity float64, updatedBy string) error {
	listing, err := r.LockByID(tx, id)
	if err != nil {
		return err
	}
	if listing.Status != model.ListingAvailable {
		return marketerrors.ErrInsufficientQuantity
	}
	remaining := model.RemainingQuantity(listing.Quantity, quantity)
	if remaining < 0 {
		return marketerrors.ErrInsufficientQuantity
	}
	status := model.ListingAvailable
	if remaining <= 0 {
		remaining, status = 0, model.ListingSold
	}

	res := tx.Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingAvailable).
		Updates(map[string]any{"quantity": remaining, "status": status, "updated_by": updatedBy})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected != 1 {
		return marketerrors.ErrInsufficientQuantity
	}
	return nil
}
