package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile groups the workflow capabilities granted to users, e.g. the
// "contributor" profile grants indicator_value:create and indicator_value:submit.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"`

	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
}

// PermissionCodes lists the profile permissions as "resource:action" codes.
func (p *Profile) PermissionCodes() []string {
	codes := make([]string, len(p.Permissions))
	for i, perm := range p.Permissions {
		codes[i] = perm.Code()
	}
	return codes
}

// Permission is a single capability, stored split so wildcards can be queried.
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}

// Resource types used in permission codes.
const (
	ResourceIndicatorValue = "indicator_value"
	ResourceConsolidation  = "consolidation"
	ResourcePeriod         = "period"
	ResourceIndicator      = "indicator"
)
