package repository

import (
	"time"

	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeliAccountRepository interface {
	FindByOrganization(orgID uuid.UUID) (*model.MeliAccount, error)
	// Upsert links a marketplace account to an organization, replacing any
	// previous linkage for the same meli user.
	Upsert(account *model.MeliAccount) error
	UpdateTokens(orgID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error
	DeleteByOrganization(orgID uuid.UUID) error
}

type meliAccountRepo struct {
	db *gorm.DB
}

func NewMeliAccountRepo(db *gorm.DB) MeliAccountRepository {
	return &meliAccountRepo{db}
}

func (r *meliAccountRepo) FindByOrganization(orgID uuid.UUID) (*model.MeliAccount, error) {
	var account model.MeliAccount
	err := r.db.First(&account, "organization_id = ?", orgID).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *meliAccountRepo) Upsert(account *model.MeliAccount) error {
	var existing model.MeliAccount
	err := r.db.First(&existing, "meli_user_id = ?", account.MeliUserID).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(account).Error
	}
	if err != nil {
		return err
	}
	existing.OrganizationID = account.OrganizationID
	existing.AccessToken = account.AccessToken
	existing.RefreshToken = account.RefreshToken
	existing.ExpiresAt = account.ExpiresAt
	return r.db.Save(&existing).Error
}

func (r *meliAccountRepo) UpdateTokens(orgID uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error {
	return r.db.Model(&model.MeliAccount{}).
		Where("organization_id = ?", orgID).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		}).Error
}

func (r *meliAccountRepo) DeleteByOrganization(orgID uuid.UUID) error {
	return r.db.Unscoped().Delete(&model.MeliAccount{}, "organization_id = ?", orgID).Error
}
