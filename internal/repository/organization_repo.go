package repository

import (
	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(org *model.Organization) error
	FindByID(id uuid.UUID) (*model.Organization, error)
	FindByName(name string) (*model.Organization, error)
}

type organizationRepo struct {
	db *gorm.DB
}

func NewOrganizationRepo(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db}
}

func (r *organizationRepo) Create(org *model.Organization) error {
	return r.db.Create(org).Error
}

func (r *organizationRepo) FindByID(id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepo) FindByName(name string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.First(&org, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
