package repository

import (
	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(orgID uuid.UUID) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindBySKU(orgID uuid.UUID, sku string) (*model.Product, error)
	FindByBarcode(orgID uuid.UUID, barcode string) (*model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(orgID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("organization_id = ?", orgID).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(orgID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "organization_id = ? AND sku = ?", orgID, sku).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(orgID uuid.UUID, barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "organization_id = ? AND barcode = ?", orgID, barcode).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Product{}, "id = ?", id).Error
}
