package model

import "github.com/shopspring/decimal"

// ListingStatus is the lifecycle state of a crop listing
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted
func (s ListingStatus) Terminal() bool {
	return s == ListingSold || s == ListingCancelled
}

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingSold, ListingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether available -> next is allowed.
// Listings only ever move out of available, into sold or cancelled.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	return s == ListingAvailable && next.Terminal()
}

// Listing is a quantity of a named crop offered by a farmer, either directly
// or through an agent acting for a farmer who may not hold an account.
type Listing struct {
	BaseModel
	// FarmerID is nil when the farmer is not registered on the platform
	FarmerID    *uint  `gorm:"index" json:"farmer_id"`
	Farmer      *User  `gorm:"foreignKey:FarmerID" json:"-"`
	FarmerName  string `gorm:"type:varchar(255)" json:"farmer_name"`
	FarmerPhone string `gorm:"type:varchar(20)" json:"farmer_phone"`
	AgentID     *uint  `gorm:"index" json:"agent_id,omitempty"`
	Agent       *User  `gorm:"foreignKey:AgentID" json:"-"`

	CropName      string        `gorm:"type:varchar(100);not null;index" json:"crop_name"`
	Quantity      float64       `gorm:"type:numeric(14,3);not null;check:quantity >= 0" json:"quantity"`
	ExpectedPrice float64       `gorm:"not null" json:"expected_price"`
	Description   string        `gorm:"type:text" json:"description"`
	Location      string        `gorm:"type:varchar(255)" json:"location"`
	Status        ListingStatus `gorm:"type:varchar(12);not null;default:'available';index;check:status IN ('available','sold','cancelled')" json:"status"`
}

// ListingOwner identifies who a listing belongs to. Exactly one of FarmerID
// (a registered farmer account) or Name/Phone (an off-platform farmer) is
// meaningful; CreatedByAgent is set when an agent posted the listing.
type ListingOwner struct {
	FarmerID       *uint
	Name           string
	Phone          string
	CreatedByAgent *uint
}

// RegisteredFarmer builds an owner for a farmer account
func RegisteredFarmer(farmerID uint) ListingOwner {
	return ListingOwner{FarmerID: &farmerID}
}

// UnregisteredFarmer builds an owner for a farmer known only by name and phone
func UnregisteredFarmer(name, phone string) ListingOwner {
	return ListingOwner{Name: name, Phone: phone}
}

// ViaAgent marks the owner as posted by an agent
func (o ListingOwner) ViaAgent(agentID uint) ListingOwner {
	o.CreatedByAgent = &agentID
	return o
}

// IsRegistered reports whether the farmer holds an account
func (o ListingOwner) IsRegistered() bool {
	return o.FarmerID != nil
}

// Owner returns the tagged owner view of the listing
func (l *Listing) Owner() ListingOwner {
	return ListingOwner{
		FarmerID:       l.FarmerID,
		Name:           l.FarmerName,
		Phone:          l.FarmerPhone,
		CreatedByAgent: l.AgentID,
	}
}

// ManagedBy reports whether the actor may manage this listing and respond to its offers
func (l *Listing) ManagedBy(a Actor) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleFarmer:
		return l.FarmerID != nil && *l.FarmerID == a.UserID
	case RoleAgent:
		return l.AgentID != nil && *l.AgentID == a.UserID
	case RoleBuyer:
		return false
	}
	return false
}

// QuantityScale is the number of decimal places kept for quantities in kg
const QuantityScale = 3

func quantityDecimal(q float64) decimal.Decimal {
	return decimal.NewFromFloat(q).Round(QuantityScale)
}

// RoundQuantity rounds q to QuantityScale places
func RoundQuantity(q float64) float64 {
	return quantityDecimal(q).InexactFloat64()
}

// QuantityExceeds reports whether want is more than remaining at QuantityScale
func QuantityExceeds(want, remaining float64) bool {
	return quantityDecimal(want).GreaterThan(quantityDecimal(remaining))
}

// RemainingQuantity is from - taken at QuantityScale. It may be negative.
func RemainingQuantity(from, taken float64) float64 {
	return quantityDecimal(from).Sub(quantityDecimal(taken)).InexactFloat64()
}
