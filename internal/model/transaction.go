package model

import "github.com/shopspring/decimal"

type TransactionStatus string

const (
	TxCompleted TransactionStatus = "completed"
	TxPending   TransactionStatus = "pending"
	TxCancelled TransactionStatus = "cancelled"
)

// Transaction is the immutable record of a sale, written exactly once when an
// offer is accepted. Only Status may change afterwards.
type Transaction struct {
	BaseModel
	OfferID   uint     `gorm:"not null;uniqueIndex" json:"offer_id"`
	Offer     *Offer   `gorm:"foreignKey:OfferID" json:"-"`
	ListingID uint     `gorm:"not null;index" json:"listing_id"`
	Listing   *Listing `gorm:"foreignKey:ListingID" json:"-"`
	BuyerID   uint     `gorm:"not null;index" json:"buyer_id"`
	Buyer     *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	// FarmerID is nil when the listing belongs to an off-platform farmer
	FarmerID   *uint  `gorm:"index" json:"farmer_id"`
	Farmer     *User  `gorm:"foreignKey:FarmerID" json:"-"`
	FarmerName string `gorm:"type:varchar(255)" json:"farmer_name"`
	AgentID    *uint  `gorm:"index" json:"agent_id,omitempty"`

	CropName     string            `gorm:"type:varchar(100);not null" json:"crop_name"`
	Quantity     float64           `gorm:"type:numeric(14,3);not null" json:"quantity"`
	PricePerUnit float64           `gorm:"not null" json:"price_per_unit"`
	TotalAmount  float64           `gorm:"not null" json:"total_amount"` // Snapshot price * quantity
	Notes        string            `gorm:"type:text" json:"notes"`
	Status       TransactionStatus `gorm:"type:varchar(12);not null;default:'completed';index;check:status IN ('completed','pending','cancelled')" json:"status"`
}

// TotalFor computes price * quantity rounded to paise
func TotalFor(price, quantity float64) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(quantity)).
		Round(2).
		InexactFloat64()
}
