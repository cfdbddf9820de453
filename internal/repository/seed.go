package repository

import (
	"errors"

	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
	"agrimarket/internal/model"
	"agrimarket/pkg/logger"
)

type seedUser struct {
	Name, Email, Password string
	Role                  model.Role
	Phone, Address        string
}

var defaultAccounts = []seedUser{
	{"System Administrator", "admin@smartfarm.com", "admin123", model.RoleAdmin, "9999999999", "System Admin"},
	{"Farm Agent", "agent@smartfarm.com", "agent123", model.RoleAgent, "8888888888", "Agent Office"},
}

var sampleFarmers = []seedUser{
	{"Ramesh Kumar", "farmer1@test.com", "farmer123", model.RoleFarmer, "+919876543210", "Village Ramgarh, Rajasthan"},
	{"Sunita Devi", "farmer2@test.com", "farmer123", model.RoleFarmer, "+919876543211", "Village Khetri, Haryana"},
	{"Mohan Singh", "farmer3@test.com", "farmer123", model.RoleFarmer, "+919876543212", "Village Bhiwani, Punjab"},
}

var sampleBuyers = []seedUser{
	{"Anil Traders", "buyer1@test.com", "buyer123", model.RoleBuyer, "+919876543220", "Mumbai, Maharashtra"},
	{"Grain Merchants", "buyer2@test.com", "buyer123", model.RoleBuyer, "+919876543221", "Delhi, India"},
}

type sampleListing struct {
	farmer      int
	crop        string
	quantity    float64
	price       float64
	description string
	location    string
}

var sampleListings = []sampleListing{
	{0, "wheat", 1000, 20.0, "Premium quality wheat, organic", "Ramgarh, Rajasthan"},
	{0, "rice", 800, 25.0, "Basmati rice, excellent quality", "Ramgarh, Rajasthan"},
	{1, "cotton", 500, 55.0, "High quality cotton", "Khetri, Haryana"},
	{2, "sugarcane", 2000, 28.0, "Fresh sugarcane", "Bhiwani, Punjab"},
	{0, "tomato", 300, 40.0, "Fresh tomatoes", "Ramgarh, Rajasthan"},
}

// SeedDefaults creates the default admin and agent accounts when missing
func SeedDefaults(db *gorm.DB) error {
	users := NewUserRepo(db)
	for _, acc := range defaultAccounts {
		if _, err := ensureUser(users, acc); err != nil {
			return err
		}
	}
	return nil
}

// SeedSampleData creates demo farmers, buyers and listings, but only on an empty marketplace
func SeedSampleData(db *gorm.DB) error {
	listings := NewListingRepo(db)
	var count int64
	if err := db.Model(&model.Listing{}).Count(&count).Error; err != nil {
		return storageErr(err)
	}
	if count > 0 {
		return nil
	}

	users := NewUserRepo(db)
	farmers := make([]*model.User, 0, len(sampleFarmers))
	for _, f := range sampleFarmers {
		u, err := ensureUser(users, f)
		if err != nil {
			return err
		}
		farmers = append(farmers, u)
	}
	for _, b := range sampleBuyers {
		if _, err := ensureUser(users, b); err != nil {
			return err
		}
	}

	for _, s := range sampleListings {
		farmer := farmers[s.farmer]
		l := &model.Listing{
			FarmerID:      &farmer.ID,
			FarmerName:    farmer.Name,
			FarmerPhone:   farmer.Phone,
			CropName:      s.crop,
			Quantity:      s.quantity,
			ExpectedPrice: s.price,
			Description:   s.description,
			Location:      s.location,
			Status:        model.ListingAvailable,
		}
		l.CreatedBy = model.SystemActor.AuditName()
		l.UpdatedBy = l.CreatedBy
		if err := listings.Create(l); err != nil {
			return err
		}
	}

	logger.Info("Sample marketplace data created", map[string]any{
		"farmers":  len(sampleFarmers),
		"buyers":   len(sampleBuyers),
		"listings": len(sampleListings),
	})
	return nil
}

func ensureUser(users UserRepository, s seedUser) (*model.User, error) {
	existing, err := users.FindByEmail(s.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, marketerrors.ErrNotFound) {
		return nil, err
	}

	u := &model.User{
		Name:              s.Name,
		Email:             s.Email,
		Role:              s.Role,
		Phone:             s.Phone,
		Address:           s.Address,
		PreferredLanguage: "en",
		IsActive:          true,
	}
	u.CreatedBy = model.SystemActor.AuditName()
	u.UpdatedBy = u.CreatedBy
	if err := u.SetPassword(s.Password); err != nil {
		return nil, err
	}
	if err := users.Create(u); err != nil {
		return nil, err
	}
	logger.Info("Default user created", map[string]any{"email": s.Email, "role": s.Role})
	return u, nil
}
