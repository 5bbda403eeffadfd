package model

import (
	"time"

	"github.com/google/uuid"
)

// UserInvite is an organization-scoped invitation. Delivery of the invite
// email is an external concern; this record is the authoritative state.
type UserInvite struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id" validate:"uuid_required"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	Email      string     `gorm:"type:varchar(255);not null;index" json:"email" validate:"required,email"`
	Token      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	RoleID     *uint      `json:"role_id"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// Usable reports whether the invite can still be accepted.
func (i *UserInvite) Usable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
