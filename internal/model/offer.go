package model

// OfferStatus is the lifecycle state of a buyer offer
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected, OfferCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected || s == OfferCancelled
}

// Offer is a buyer's bid against a listing
type Offer struct {
	BaseModel
	BuyerID   uint     `gorm:"not null;index" json:"buyer_id"`
	Buyer     *User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	ListingID uint     `gorm:"not null;index" json:"listing_id"`
	Listing   *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`

	CropName       string      `gorm:"type:varchar(100);not null" json:"crop_name"`
	OfferPrice     float64     `gorm:"not null" json:"offer_price"`
	QuantityWanted float64     `gorm:"type:numeric(14,3);not null" json:"quantity_wanted"`
	Notes          string      `gorm:"type:text" json:"notes"`
	Status         OfferStatus `gorm:"type:varchar(12);not null;default:'pending';index;check:status IN ('pending','accepted','rejected','cancelled')" json:"status"`
}

// OfferView is the read projection returned by offer queries
type OfferView struct {
	ID             uint        `json:"id"`
	BuyerID        uint        `json:"buyer_id"`
	BuyerName      string      `json:"buyer_name"`
	BuyerPhone     string      `json:"buyer_phone"`
	ListingID      uint        `json:"listing_id"`
	CropName       string      `json:"crop_name"`
	OfferPrice     float64     `json:"offer_price"`
	QuantityWanted float64     `json:"quantity_wanted"`
	Notes          string      `json:"notes"`
	Status         OfferStatus `json:"status"`
	ExpectedPrice  float64     `json:"expected_price"`
	FarmerName     string      `json:"farmer_name"`
	FarmerPhone    string      `json:"farmer_phone"`
	AgentID        *uint       `json:"agent_id,omitempty"`
	CreatedAt      string      `json:"created_at"`
}

// ToView flattens an offer with preloaded Buyer and Listing (and the listing's Farmer)
func (o *Offer) ToView() OfferView {
	v := OfferView{
		ID:             o.ID,
		BuyerID:        o.BuyerID,
		ListingID:      o.ListingID,
		CropName:       o.CropName,
		OfferPrice:     o.OfferPrice,
		QuantityWanted: o.QuantityWanted,
		Notes:          o.Notes,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if o.Buyer != nil {
		v.BuyerName = o.Buyer.Name
		v.BuyerPhone = o.Buyer.Phone
	}
	if l := o.Listing; l != nil {
		v.ExpectedPrice = l.ExpectedPrice
		v.AgentID = l.AgentID
		v.FarmerName, v.FarmerPhone = l.FarmerName, l.FarmerPhone
		if l.Farmer != nil {
			if v.FarmerName == "" {
				v.FarmerName = l.Farmer.Name
			}
			if v.FarmerPhone == "" {
				v.FarmerPhone = l.Farmer.Phone
			}
		}
	}
	return v
}
