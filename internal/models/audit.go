package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransitionLog records one successful workflow transition.
type TransitionLog struct {
	ID         uuid.UUID         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ValueID    uint              `gorm:"index;not null" json:"value_id"`
	FromStatus ValueStatus       `gorm:"size:20;not null" json:"from_status"`
	ToStatus   ValueStatus       `gorm:"size:20;not null" json:"to_status"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	Comment    string            `gorm:"type:text" json:"comment,omitempty"`
	Details    datatypes.JSONMap `json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a random ID when none is set.
func (l *TransitionLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
