package repository

import (
	"gorm.io/gorm"

	"agrimarket/internal/model"
)

// Migrate creates or updates the schema: foreign keys, unique email and enum CHECKs
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.Offer{},
		&model.Transaction{},
	)
}
