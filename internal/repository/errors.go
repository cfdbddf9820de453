package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"agrimarket/internal/marketerrors"
)

// storageErr tags an unexpected database failure with ErrStorage
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", marketerrors.ErrStorage, err)
}

// lookupErr maps a missing row to the entity's not-found error
func lookupErr(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storageErr(err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
