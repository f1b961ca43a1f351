package mongostore

import (
	"time"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/google/uuid"
)

type valueDoc struct {
	ID            int64      `bson:"_id"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	IndicatorCode string     `bson:"indicator_code"`
	ProcessCode   string     `bson:"process_code"`
	Organization  string     `bson:"organization"`
	FiliereName   *string    `bson:"filiere_name,omitempty"`
	FilialeName   *string    `bson:"filiale_name,omitempty"`
	SiteName      *string    `bson:"site_name,omitempty"`
	PeriodID      int64      `bson:"period_id"`
	Year          int        `bson:"year"`
	PeriodType    string     `bson:"period_type"`
	PeriodNumber  *int       `bson:"period_number,omitempty"`
	Value         *float64   `bson:"value"`
	Unit          string     `bson:"unit,omitempty"`
	Status        string     `bson:"status"`
	Comment       string     `bson:"comment,omitempty"`
	SubmittedBy   *int64     `bson:"submitted_by,omitempty"`
	SubmittedAt   *time.Time `bson:"submitted_at,omitempty"`
	ValidatedBy   *int64     `bson:"validated_by,omitempty"`
	ValidatedAt   *time.Time `bson:"validated_at,omitempty"`
}

func toValueDoc(v *models.IndicatorValue) valueDoc {
	return valueDoc{
		ID:            int64(v.ID),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		IndicatorCode: v.IndicatorCode,
		ProcessCode:   v.ProcessCode,
		Organization:  v.Organization,
		FiliereName:   v.FiliereName,
		FilialeName:   v.FilialeName,
		SiteName:      v.SiteName,
		PeriodID:      int64(v.PeriodID),
		Year:          v.Year,
		PeriodType:    string(v.PeriodType),
		PeriodNumber:  v.PeriodNumber,
		Value:         v.Value,
		Unit:          v.Unit,
		Status:        string(v.Status),
		Comment:       v.Comment,
		SubmittedBy:   toInt64(v.SubmittedBy),
		SubmittedAt:   v.SubmittedAt,
		ValidatedBy:   toInt64(v.ValidatedBy),
		ValidatedAt:   v.ValidatedAt,
	}
}

func (d valueDoc) model() models.IndicatorValue {
	return models.IndicatorValue{
		ID:            uint(d.ID),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		IndicatorCode: d.IndicatorCode,
		ProcessCode:   d.ProcessCode,
		Organization:  d.Organization,
		FiliereName:   d.FiliereName,
		FilialeName:   d.FilialeName,
		SiteName:      d.SiteName,
		PeriodID:      uint(d.PeriodID),
		Year:          d.Year,
		PeriodType:    models.PeriodType(d.PeriodType),
		PeriodNumber:  d.PeriodNumber,
		Value:         d.Value,
		Unit:          d.Unit,
		Status:        models.ValueStatus(d.Status),
		Comment:       d.Comment,
		SubmittedBy:   toUint(d.SubmittedBy),
		SubmittedAt:   d.SubmittedAt,
		ValidatedBy:   toUint(d.ValidatedBy),
		ValidatedAt:   d.ValidatedAt,
	}
}

type logDoc struct {
	ID         string         `bson:"_id"`
	ValueID    int64          `bson:"value_id"`
	FromStatus string         `bson:"from_status"`
	ToStatus   string         `bson:"to_status"`
	ActorID    int64          `bson:"actor_id"`
	Comment    string         `bson:"comment,omitempty"`
	Details    map[string]any `bson:"details,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
}

func toLogDoc(l *models.TransitionLog) logDoc {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return logDoc{
		ID:         l.ID.String(),
		ValueID:    int64(l.ValueID),
		FromStatus: string(l.FromStatus),
		ToStatus:   string(l.ToStatus),
		ActorID:    int64(l.ActorID),
		Comment:    l.Comment,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt,
	}
}

func (d logDoc) model() (models.TransitionLog, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.TransitionLog{}, err
	}
	return models.TransitionLog{
		ID:         id,
		ValueID:    uint(d.ValueID),
		FromStatus: models.ValueStatus(d.FromStatus),
		ToStatus:   models.ValueStatus(d.ToStatus),
		ActorID:    uint(d.ActorID),
		Comment:    d.Comment,
		Details:    d.Details,
		CreatedAt:  d.CreatedAt,
	}, nil
}

func toInt64(p *uint) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

func toUint(p *int64) *uint {
	if p == nil {
		return nil
	}
	v := uint(*p)
	return &v
}
