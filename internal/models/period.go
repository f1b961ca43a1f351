package models

import (
	"fmt"
	"time"
)

// PeriodType is the granularity of a collection period.
type PeriodType string

const (
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
)

// PeriodStatus tells whether a period still accepts validations.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// Valid reports whether s is one of the two known statuses.
func (s PeriodStatus) Valid() bool {
	return s == PeriodOpen || s == PeriodClosed
}

// CollectionPeriod is a named time bucket for one organization.
// PeriodNumber is 1-12 for months, 1-4 for quarters and nil for years.
type CollectionPeriod struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization string       `gorm:"size:255;not null;uniqueIndex:idx_period_key" json:"organization"`
	Year         int          `gorm:"not null;uniqueIndex:idx_period_key" json:"year"`
	PeriodType   PeriodType   `gorm:"size:20;not null;uniqueIndex:idx_period_key" json:"period_type"`
	PeriodNumber *int         `gorm:"uniqueIndex:idx_period_key" json:"period_number"`
	StartDate    time.Time    `gorm:"not null" json:"start_date"`
	EndDate      time.Time    `gorm:"not null" json:"end_date"`
	Status       PeriodStatus `gorm:"size:20;not null;default:'open'" json:"status"`
}

// IsClosed reports whether the period rejects new validations.
func (p *CollectionPeriod) IsClosed() bool {
	return p.Status == PeriodClosed
}

// ValidatePeriodNumber checks the number against the period type.
func ValidatePeriodNumber(t PeriodType, number *int) error {
	switch t {
	case PeriodMonth:
		if number == nil || *number < 1 || *number > 12 {
			return fmt.Errorf("month number must be 1-12")
		}
	case PeriodQuarter:
		if number == nil || *number < 1 || *number > 4 {
			return fmt.Errorf("quarter number must be 1-4")
		}
	case PeriodYear:
		if number != nil {
			return fmt.Errorf("yearly period takes no number")
		}
	default:
		return fmt.Errorf("unknown period type %q", t)
	}
	return nil
}

// PeriodBounds returns the first and last day of a period in UTC.
func PeriodBounds(year int, t PeriodType, number *int) (start, end time.Time) {
	switch t {
	case PeriodMonth:
		start = time.Date(year, time.Month(*number), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	case PeriodQuarter:
		start = time.Date(year, time.Month((*number-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 3, -1)
	default:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return start, end
}
