// Package model contains the GORM persistence models mirroring the sqlite
// schema. They are kept separate from the pure domain entities.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityModel mirrors the 'identities' table. The unique index on
// username is the authoritative enforcement of the uniqueness invariant.
type IdentityModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username           string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	DisplayName        string    `gorm:"type:varchar(100)"`
	CredentialArtifact string    `gorm:"type:text;not null"`
	Role               string    `gorm:"type:varchar(32);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// BeforeCreate assigns the id; sqlite has no server-side UUID default.
func (m *IdentityModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}
