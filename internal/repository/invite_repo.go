package repository

import (
	"time"

	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InviteRepository interface {
	Create(invite *model.UserInvite) error
	FindByToken(token string) (*model.UserInvite, error)
	FindByOrganization(orgID uuid.UUID) ([]model.UserInvite, error)
	MarkAccepted(id uuid.UUID, at time.Time) error
	Delete(id uuid.UUID) error
}

type inviteRepo struct {
	db *gorm.DB
}

func NewInviteRepo(db *gorm.DB) InviteRepository {
	return &inviteRepo{db}
}

func (r *inviteRepo) Create(invite *model.UserInvite) error {
	return r.db.Create(invite).Error
}

func (r *inviteRepo) FindByToken(token string) (*model.UserInvite, error) {
	var invite model.UserInvite
	err := r.db.First(&invite, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepo) FindByOrganization(orgID uuid.UUID) ([]model.UserInvite, error) {
	var invites []model.UserInvite
	err := r.db.Where("organization_id = ?", orgID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *inviteRepo) MarkAccepted(id uuid.UUID, at time.Time) error {
	return r.db.Model(&model.UserInvite{}).Where("id = ?", id).Update("accepted_at", at).Error
}

func (r *inviteRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.UserInvite{}, "id = ?", id).Error
}
