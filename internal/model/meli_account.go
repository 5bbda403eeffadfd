package model

import (
	"time"

	"github.com/google/uuid"
)

// MeliAccount stores one organization's MercadoLibre OAuth linkage.
// Tokens are rotated by the token service; expires_at drives the refresh.
type MeliAccount struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"organization_id" validate:"uuid_required"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	MeliUserID   int64     `gorm:"not null;uniqueIndex" json:"meli_user_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
}

// ExpiresWithin reports whether the access token expires inside the given
// buffer from now.
func (a *MeliAccount) ExpiresWithin(buffer time.Duration) bool {
	return time.Until(a.ExpiresAt) <= buffer
}
