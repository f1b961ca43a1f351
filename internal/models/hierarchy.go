package models

import "time"

// Organization is the root of an indicator hierarchy.
// A complex organization owns filières and/or filiales; a simple one attaches
// its sites directly.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`

	Filieres []Filiere `gorm:"foreignKey:OrganizationID" json:"filieres,omitempty"`
	Filiales []Filiale `gorm:"foreignKey:OrganizationID" json:"filiales,omitempty"`
	Sites    []Site    `gorm:"foreignKey:OrganizationID" json:"sites,omitempty"`
}

// IsComplex reports whether the organization is structured in filières/filiales.
func (o *Organization) IsComplex() bool {
	return IsComplex(len(o.Filieres), len(o.Filiales))
}

// IsComplex is the complexity rule on declared counts.
func IsComplex(filieres, filiales int) bool {
	return filieres > 0 || filiales > 0
}

// Filiere is a business line beneath an organization.
type Filiere struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_filiere_org_name" json:"organization_id"`
	Name           string `gorm:"size:255;not null;uniqueIndex:idx_filiere_org_name" json:"name"`
}

// Filiale is a subsidiary beneath a filière.
type Filiale struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrganizationID uint     `gorm:"index;not null" json:"organization_id"`
	FiliereID      uint     `gorm:"not null;uniqueIndex:idx_filiale_filiere_name" json:"filiere_id"`
	Filiere        *Filiere `gorm:"foreignKey:FiliereID" json:"-"`
	Name           string   `gorm:"size:255;not null;uniqueIndex:idx_filiale_filiere_name" json:"name"`
}

// Site is the leaf where raw values are collected.
// FilialeID is nil in simple organizations.
type Site struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrganizationID uint     `gorm:"not null;uniqueIndex:idx_site_org_name" json:"organization_id"`
	FilialeID      *uint    `gorm:"index" json:"filiale_id,omitempty"`
	Filiale        *Filiale `gorm:"foreignKey:FilialeID" json:"-"`
	Name           string   `gorm:"size:255;not null;uniqueIndex:idx_site_org_name" json:"name"`
}
