package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientModel mirrors the 'clients' table.
type ClientModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Document  string    `gorm:"type:varchar(50)"`
	Phone     string    `gorm:"type:varchar(50)"`
	Email     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Vehicles []VehicleModel      `gorm:"foreignKey:ClientID"`
	Orders   []ServiceOrderModel `gorm:"foreignKey:ClientID"`
}

// TableName explicitly sets the table name for GORM.
func (ClientModel) TableName() string {
	return "clients"
}

// BeforeCreate assigns the id; sqlite has no server-side UUID default.
func (m *ClientModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// VehicleModel mirrors the 'vehicles' table. ClientID references clients.id.
type VehicleModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Plate     string    `gorm:"type:varchar(20);not null;index"`
	Brand     string    `gorm:"type:varchar(100)"`
	Model     string    `gorm:"type:varchar(100)"`
	Year      int
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Orders []ServiceOrderModel `gorm:"foreignKey:VehicleID"`
}

// TableName explicitly sets the table name for GORM.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// BeforeCreate assigns the id; sqlite has no server-side UUID default.
func (m *VehicleModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// ServiceOrderModel mirrors the 'service_orders' table.
type ServiceOrderModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code             string    `gorm:"type:varchar(32);not null;index"`
	Description      string    `gorm:"type:text;not null"`
	Status           string    `gorm:"type:varchar(20);not null;default:OPEN"`
	Priority         string    `gorm:"type:varchar(20);not null;default:MEDIUM"`
	OpenedAt         time.Time
	ClientID         uuid.UUID `gorm:"type:uuid;not null;index"`
	VehicleID        uuid.UUID `gorm:"type:uuid;not null;index"`
	AssignedMechanic *string   `gorm:"type:varchar(100);index"`
	Value            float64   `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// History rows are deliberately not declared as an association: the
	// audit trail carries no FK constraint so entries survive order
	// deletion.
}

// TableName explicitly sets the table name for GORM.
func (ServiceOrderModel) TableName() string {
	return "service_orders"
}

// BeforeCreate assigns the id; sqlite has no server-side UUID default.
func (m *ServiceOrderModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}
