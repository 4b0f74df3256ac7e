package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryModel mirrors the 'service_order_history' table. Rows are
// append-only: the repository exposes no update or delete for them.
type HistoryModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	RecordedAt time.Time `gorm:"not null;index"`
	Actor      *string   `gorm:"type:varchar(100)"`
	Action     string    `gorm:"type:varchar(20);not null"`

	Status      string `gorm:"type:varchar(20)"`
	Priority    string `gorm:"type:varchar(20)"`
	Mechanic    *string
	Value       float64
	Description string `gorm:"type:text"`

	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (HistoryModel) TableName() string {
	return "service_order_history"
}

// BeforeCreate assigns the id; sqlite has no server-side UUID default.
func (m *HistoryModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}
