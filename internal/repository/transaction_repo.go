package repository

import (
	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, t *model.Transaction) error
	FindAll() ([]model.Transaction, error)
	FindByID(id uint) (*model.Transaction, error)
	FindByOfferID(offerID uint) (*model.Transaction, error)
	GetTotals() (*TransactionTotals, error)
}

// TransactionTotals feeds the dashboard overview
type TransactionTotals struct {
	Count      int64   `json:"transaction_count"`
	TotalValue float64 `json:"total_transaction_value"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, t *model.Transaction) error {
	return storageErr(tx.Create(t).Error)
}

func (r *transactionRepo) FindAll() ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Preload("Buyer").Order("created_at DESC, id DESC").Find(&transactions).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return transactions, nil
}

func (r *transactionRepo) FindByID(id uint) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.db.Preload("Buyer").First(&transaction, id).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

func (r *transactionRepo) FindByOfferID(offerID uint) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.db.Where("offer_id = ?", offerID).First(&transaction).Error; err != nil {
		return nil, lookupErr(err, marketerrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

// GetTotals counts every transaction and sums total_amount regardless of status
func (r *transactionRepo) GetTotals() (*TransactionTotals, error) {
	var totals TransactionTotals
	err := r.db.Model(&model.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_value").
		Scan(&totals).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return &totals, nil
}
