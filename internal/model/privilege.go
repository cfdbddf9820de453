package model

// Capability represents an operation family a role may invoke
type Capability string

const (
	// User management
	CapUserView   Capability = "user:view"
	CapUserCreate Capability = "user:create"
	CapUserToggle Capability = "user:toggle_active"
	// Listings
	CapListingCreate Capability = "listing:create"
	CapListingManage Capability = "listing:manage"
	// Offers
	CapOfferSubmit  Capability = "offer:submit"
	CapOfferRespond Capability = "offer:respond"
	CapOfferViewAll Capability = "offer:view_all"
	// Transactions & reporting
	CapTransactionView Capability = "transaction:view"
	CapDashboardView   Capability = "dashboard:view"
	// Reference data
	CapMarketPriceUpdate Capability = "market:update_price"
)

// Can reports whether the role holds the capability.
// Every role is matched explicitly so a new role fails closed.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleFarmer:
		switch c {
		case CapListingCreate, CapListingManage, CapOfferRespond:
			return true
		}
	case RoleAgent:
		switch c {
		case CapListingCreate, CapListingManage, CapOfferRespond, CapMarketPriceUpdate:
			return true
		}
	case RoleBuyer:
		switch c {
		case CapOfferSubmit:
			return true
		}
	}
	return false
}

// Capabilities returns every capability the role holds, used for token claims
func (r Role) Capabilities() []Capability {
	all := []Capability{
		CapUserView, CapUserCreate, CapUserToggle,
		CapListingCreate, CapListingManage,
		CapOfferSubmit, CapOfferRespond, CapOfferViewAll,
		CapTransactionView, CapDashboardView,
		CapMarketPriceUpdate,
	}
	var caps []Capability
	for _, c := range all {
		if r.Can(c) {
			caps = append(caps, c)
		}
	}
	return caps
}
