package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
)

type OfferRepository interface {
	Create(offer *model.Offer) error
	FindByID(id uint) (*model.Offer, error)
	ListByBuyer(buyerID uint) ([]model.Offer, error)
	ListForFarmer(farmerID uint) ([]model.Offer, error)
	ListForAgent(agentID uint) ([]model.Offer, error)
	ListByStatus(status model.OfferStatus) ([]model.Offer, error)
	LockByID(tx *gorm.DB, id uint) (*model.Offer, error)
	Transition(tx *gorm.DB, id uint, to model.OfferStatus, updatedBy string) error
}

type offerRepo struct {
	db *gorm.DB
}

func NewOfferRepo(db *gorm.DB) OfferRepository {
	return &offerRepo{db}
}

func (r *offerRepo) Create(offer *model.Offer) error {
	return storageErr(r.db.Create(offer).Error)
}

func (r *offerRepo) FindByID(id uint) (*model.Offer, error) {
	var offer model.Offer
	err := r.withRelations(r.db).First(&offer, id).Error
	if err != nil {
		return nil, lookupErr(err, marketerrors.ErrOfferNotFound)
	}
	return &offer, nil
}

func (r *offerRepo) ListByBuyer(buyerID uint) ([]model.Offer, error) {
	return r.list(r.db.Where("offers.buyer_id = ?", buyerID))
}

func (r *offerRepo) ListForFarmer(farmerID uint) ([]model.Offer, error) {
	return r.list(r.db.Joins("JOIN listings ON listings.id = offers.listing_id").
		Where("listings.farmer_id = ?", farmerID))
}

func (r *offerRepo) ListForAgent(agentID uint) ([]model.Offer, error) {
	return r.list(r.db.Joins("JOIN listings ON listings.id = offers.listing_id").
		Where("listings.agent_id = ?", agentID))
}

// ListByStatus returns every offer when status is empty
func (r *offerRepo) ListByStatus(status model.OfferStatus) ([]model.Offer, error) {
	q := r.db
	if status != "" {
		q = q.Where("offers.status = ?", status)
	}
	return r.list(q)
}

func (r *offerRepo) LockByID(tx *gorm.DB, id uint) (*model.Offer, error) {
	var offer model.Offer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&offer, id).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrOfferNotFound)
	}
	return &offer, nil
}

// Transition moves a pending offer to the given status.
// ErrInvalidState is returned when the offer has already left pending.
func (r *offerRepo) Transition(tx *gorm.DB, id uint, to model.OfferStatus, updatedBy string) error {
	res := tx.Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, model.OfferPending).
		Updates(map[string]any{"status": to, "updated_by": updatedBy})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected != 1 {
		return marketerrors.ErrInvalidState
	}
	return nil
}

func (r *offerRepo) withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Buyer").Preload("Listing").Preload("Listing.Farmer")
}

func (r *offerRepo) list(q *gorm.DB) ([]model.Offer, error) {
	var offers []model.Offer
	err := r.withRelations(q).
		Order("offers.created_at DESC, offers.id DESC").
		Find(&offers).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return offers, nil
}
