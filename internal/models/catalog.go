package models

import "time"

// Processus groups indicators; validators are assigned per process.
type Processus struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
}

// Aggregation declares how several rows of the same month fold into one value.
type Aggregation string

const (
	AggregationLatest  Aggregation = "latest"
	AggregationSum     Aggregation = "sum"
	AggregationAverage Aggregation = "average"
)

// Indicator is a catalog definition.
type Indicator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code        string      `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Unit        string      `gorm:"size:50" json:"unit,omitempty"`
	Type        string      `gorm:"size:50" json:"type,omitempty"`
	Formula     string      `gorm:"type:text" json:"formula,omitempty"`
	ProcessCode string      `gorm:"size:50;index;not null" json:"process_code"`
	Aggregation Aggregation `gorm:"size:20" json:"aggregation,omitempty"`
}

// MonthlyAggregation returns the declared aggregation, defaulting to latest.
func (i *Indicator) MonthlyAggregation() Aggregation {
	switch i.Aggregation {
	case AggregationSum, AggregationAverage:
		return i.Aggregation
	default:
		return AggregationLatest
	}
}

// OrganizationIndicator records that an organization tracks an indicator.
type OrganizationIndicator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_org_indicator" json:"organization_id"`
	IndicatorCode  string `gorm:"size:50;not null;uniqueIndex:idx_org_indicator" json:"indicator_code"`
}
