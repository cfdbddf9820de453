// Package testutil opens throwaway SQLite databases for store and service tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agrimarket/internal/model"
	"agrimarket/internal/repository"
	"agrimarket/pkg/database"
)

// NewDB returns a migrated database backed by a file in t.TempDir()
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "market.db"),
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active account with password "secret123"
func CreateUser(t testing.TB, db *gorm.DB, name, email string, role model.Role, phone string) *model.User {
	t.Helper()

	u := &model.User{
		Name:              name,
		Email:             email,
		Role:              role,
		Phone:             phone,
		PreferredLanguage: "en",
		IsActive:          true,
	}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, repository.NewUserRepo(db).Create(u))
	return u
}

// CreateListing inserts an available listing owned by farmer (which may be nil for an off-platform farmer)
func CreateListing(t testing.TB, db *gorm.DB, farmer *model.User, agentID *uint, crop string, quantity, price float64) *model.Listing {
	t.Helper()

	l := &model.Listing{
		AgentID:       agentID,
		CropName:      crop,
		Quantity:      quantity,
		ExpectedPrice: price,
		Location:      "Nashik",
		Status:        model.ListingAvailable,
	}
	if farmer != nil {
		l.FarmerID = &farmer.ID
		l.FarmerName = farmer.Name
		l.FarmerPhone = farmer.Phone
	} else {
		l.FarmerName = "Offline Farmer"
		l.FarmerPhone = "+910000000000"
	}
	require.NoError(t, repository.NewListingRepo(db).Create(l))
	return l
}
