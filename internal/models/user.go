package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an actor of the indicator workflow. Authentication happens
// upstream; this record only carries what authorization needs.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`

	// ProfileID links the user to an authorization profile.
	// A nil value means the user has no profile assigned (no capability).
	ProfileID *uint    `gorm:"index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`

	// Organization the user contributes to.
	Organization string `gorm:"size:255;index" json:"organization,omitempty"`
	// SiteName restricts the user to one site when set.
	SiteName *string `gorm:"size:255" json:"site_name,omitempty"`

	Processes []ProcessAssignment `gorm:"foreignKey:UserID" json:"processes,omitempty"`
}

// ProcessAssignment grants a validator the values of one process.
type ProcessAssignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_process" json:"user_id"`
	ProcessCode string    `gorm:"size:50;not null;uniqueIndex:idx_user_process" json:"process_code"`
}
