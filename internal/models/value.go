package models

import (
	"strings"
	"time"
)

// ValueStatus is the workflow state of an indicator value.
type ValueStatus string

const (
	StatusDraft     ValueStatus = "draft"
	StatusSubmitted ValueStatus = "submitted"
	StatusValidated ValueStatus = "validated"
	StatusRejected  ValueStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ValueStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s ValueStatus) IsTerminal() bool {
	return s == StatusValidated || s == StatusRejected
}

// transitions lists, for each status, the statuses reachable from it.
var transitions = map[ValueStatus][]ValueStatus{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusValidated, StatusRejected},
}

// CanTransition reports whether from -> to is in the workflow table.
func CanTransition(from, to ValueStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ScopeLevel is the granularity at which a value was entered.
type ScopeLevel string

const (
	LevelOrganization ScopeLevel = "organization"
	LevelFiliere      ScopeLevel = "filiere"
	LevelFiliale      ScopeLevel = "filiale"
	LevelSite         ScopeLevel = "site"
)

// IndicatorValue is one numeric submission.
// Year, PeriodType and PeriodNumber are copied from the period at creation so
// consolidation can filter without a join.
type IndicatorValue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IndicatorCode string `gorm:"size:50;not null;index:idx_value_lookup" json:"indicator_code"`
	ProcessCode   string `gorm:"size:50;not null;index" json:"process_code"`
	Organization  string `gorm:"size:255;not null;index:idx_value_lookup" json:"organization"`

	// The owning node: a site alone, a filiale with its filière, a filière
	// alone, or none for organization level. Filiale names are only unique
	// within their filière.
	FiliereName *string `gorm:"size:255" json:"filiere_name,omitempty"`
	FilialeName *string `gorm:"size:255" json:"filiale_name,omitempty"`
	SiteName    *string `gorm:"size:255;index" json:"site_name,omitempty"`

	PeriodID     uint       `gorm:"index;not null" json:"period_id"`
	Year         int        `gorm:"not null;index:idx_value_lookup" json:"year"`
	PeriodType   PeriodType `gorm:"size:20;not null" json:"period_type"`
	PeriodNumber *int       `json:"period_number,omitempty"`

	Value   *float64    `json:"value"`
	Unit    string      `gorm:"size:50" json:"unit,omitempty"`
	Status  ValueStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Comment string      `gorm:"type:text" json:"comment,omitempty"`

	SubmittedBy *uint      `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ValidatedBy *uint      `json:"validated_by,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

// Owner returns the level and name of the node the value was entered at.
func (v *IndicatorValue) Owner() (ScopeLevel, string) {
	switch {
	case v.SiteName != nil:
		return LevelSite, *v.SiteName
	case v.FilialeName != nil:
		return LevelFiliale, *v.FilialeName
	case v.FiliereName != nil:
		return LevelFiliere, *v.FiliereName
	default:
		return LevelOrganization, v.Organization
	}
}

// ScopeFieldsValid reports whether the identifiers name exactly one owning
// node in the shape IndicatorValue stores.
func ScopeFieldsValid(filiere, filiale, site *string) bool {
	switch {
	case site != nil:
		return filiere == nil && filiale == nil
	case filiale != nil:
		return filiere != nil
	}
	return true
}

// Month returns the calendar month the value lands in for consolidation.
// Quarterly values land in the last month of their quarter; yearly values
// return 0, the whole-year slot.
func (v *IndicatorValue) Month() int {
	if v.PeriodNumber == nil {
		return 0
	}
	switch v.PeriodType {
	case PeriodMonth:
		return *v.PeriodNumber
	case PeriodQuarter:
		return *v.PeriodNumber * 3
	}
	return 0
}

// IsYearly reports whether the value is a whole-year value.
func (v *IndicatorValue) IsYearly() bool {
	return v.PeriodType == PeriodYear
}

// HasComment reports whether the comment has visible content.
func HasComment(comment string) bool {
	return strings.TrimSpace(comment) != ""
}
