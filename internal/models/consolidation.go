package models

import "time"

// IndicatorTarget is the objective for one indicator, node and year.
// Empty names mean the level is not set: all empty targets the organization.
// A filiale target also names its filière.
type IndicatorTarget struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization  string   `gorm:"size:255;not null;uniqueIndex:idx_target_key" json:"organization"`
	FiliereName   string   `gorm:"size:255;uniqueIndex:idx_target_key" json:"filiere_name,omitempty"`
	FilialeName   string   `gorm:"size:255;uniqueIndex:idx_target_key" json:"filiale_name,omitempty"`
	SiteName      string   `gorm:"size:255;uniqueIndex:idx_target_key" json:"site_name,omitempty"`
	IndicatorCode string   `gorm:"size:50;not null;uniqueIndex:idx_target_key" json:"indicator_code"`
	Year          int      `gorm:"not null;uniqueIndex:idx_target_key" json:"year"`
	Value         *float64 `json:"value"`
}

// ConsolidatedValue is a pre-aggregated value for one scope node.
// When present it is authoritative over the value derived from raw rows.
// FiliereName qualifies filiale-level nodes and is empty at other levels.
type ConsolidatedValue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization  string     `gorm:"size:255;not null;uniqueIndex:idx_consolidated_key" json:"organization"`
	Level         ScopeLevel `gorm:"size:20;not null;uniqueIndex:idx_consolidated_key" json:"level"`
	FiliereName   string     `gorm:"size:255;uniqueIndex:idx_consolidated_key" json:"filiere_name,omitempty"`
	NodeName      string     `gorm:"size:255;not null;uniqueIndex:idx_consolidated_key" json:"node_name"`
	IndicatorCode string     `gorm:"size:50;not null;uniqueIndex:idx_consolidated_key" json:"indicator_code"`
	Year          int        `gorm:"not null;uniqueIndex:idx_consolidated_key" json:"year"`
	Value         *float64   `json:"value"`
}

// ConsolidatedRow is one indicator for one scope node and year. It is
// computed on demand and never stored.
type ConsolidatedRow struct {
	Organization string     `json:"organization"`
	Scope        ScopeKind  `json:"scope"`
	Level        ScopeLevel `json:"level"`
	NodeName     string     `json:"node_name"`
	FiliereNames []string   `json:"filiere_names"`
	FilialeNames []string   `json:"filiale_names"`
	SiteNames    []string   `json:"site_names"`
	Year         int        `json:"year"`

	IndicatorCode string `json:"indicator_code"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Unit          string `json:"unit,omitempty"`
	Type          string `json:"type,omitempty"`
	Formula       string `json:"formula,omitempty"`
	ProcessCode   string `json:"process_code"`

	Current        *float64     `json:"current"`
	Previous       *float64     `json:"previous"`
	Target         *float64     `json:"target"`
	VariationPct   *float64     `json:"variation_pct"`
	PerformancePct *float64     `json:"performance_pct"`
	Monthly        [12]*float64 `json:"monthly"`
}

// PerformanceClass buckets a performance percentage for display.
// A nil performance has no class.
func PerformanceClass(performance *float64) string {
	if performance == nil {
		return ""
	}
	switch p := *performance; {
	case p >= 90:
		return "excellent"
	case p >= 70:
		return "good"
	case p >= 50:
		return "fair"
	default:
		return "poor"
	}
}
