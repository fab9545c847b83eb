package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient rows are shared between recipes; the (name, unit) pair is not
// unique at the DB level, the seed loader deduplicates on insert instead.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
	Name            string    `gorm:"size:64;not null;index" json:"name"`
	MeasurementUnit string    `gorm:"size:24;not null" json:"measurement_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
