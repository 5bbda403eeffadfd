package repository

import (
	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	// Increment adds one unit for the product, creating the row on first scan.
	Increment(tx *gorm.DB, productID uuid.UUID) error
	FindByProduct(productID uuid.UUID) (*model.Inventory, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) Increment(tx *gorm.DB, productID uuid.UUID) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("quantity + 1")}),
	}).Create(&model.Inventory{ProductID: productID, Quantity: 1}).Error
}

func (r *inventoryRepo) FindByProduct(productID uuid.UUID) (*model.Inventory, error) {
	var inv model.Inventory
	err := r.db.First(&inv, "product_id = ?", productID).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
