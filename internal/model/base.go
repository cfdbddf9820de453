package model

import (
	"time"
)

// BaseModel handles the surrogate ID and standard audit trail
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(64)" json:"updated_by,omitempty"`
}

// Actor is the caller on whose behalf a core operation runs.
// It is built by the auth middleware from the verified token and passed
// explicitly into every service call.
type Actor struct {
	UserID uint   `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// AuditName is the value written into CreatedBy/UpdatedBy columns.
func (a Actor) AuditName() string {
	if a.UserID == 0 {
		return "system"
	}
	return a.Email
}

// SystemActor is used for seeding and maintenance commands.
var SystemActor = Actor{Role: RoleAdmin, Name: "system"}
