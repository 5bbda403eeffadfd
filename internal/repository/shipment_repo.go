package repository

import (
	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShipmentFilter struct {
	Type   model.ShipmentType
	Status model.ShipmentStatus
}

type ShipmentRepository interface {
	Create(shipment *model.Shipment) error
	FindAll(orgID uuid.UUID, filter ShipmentFilter) ([]model.Shipment, error)
	FindByID(id uuid.UUID) (*model.Shipment, error)
	FindByMeliID(orgID uuid.UUID, meliID string) (*model.Shipment, error)
	Save(shipment *model.Shipment) error
	// EnsureByMeliID inserts the shipment if no row exists for its meli_id
	// and reports whether it did. Existing shipments keep their status.
	EnsureByMeliID(tx *gorm.DB, shipment *model.Shipment) (*model.Shipment, bool, error)
	// UpsertItem inserts or refreshes one line on (shipment_id, product_id).
	// expected_qty and sku are resynced; scanned_qty is preserved on conflict
	// so a sync cannot discard in-progress picking.
	UpsertItem(tx *gorm.DB, item *model.ShipmentItem) error
	IncrementScanned(tx *gorm.DB, itemID uuid.UUID) error
	CountOpen(orgID uuid.UUID) (int64, error)
}

type shipmentRepo struct {
	db *gorm.DB
}

func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db}
}

func (r *shipmentRepo) Create(shipment *model.Shipment) error {
	return r.db.Create(shipment).Error
}

func (r *shipmentRepo) FindAll(orgID uuid.UUID, filter ShipmentFilter) ([]model.Shipment, error) {
	q := r.db.Where("organization_id = ?", orgID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var shipments []model.Shipment
	err := q.Preload("Items").Preload("Items.Product").Order("created_at DESC").Find(&shipments).Error
	return shipments, err
}

func (r *shipmentRepo) FindByID(id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.Preload("Items").Preload("Items.Product").First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) FindByMeliID(orgID uuid.UUID, meliID string) (*model.Shipment, error) {
	var shipment model.Shipment
	err := r.db.Preload("Items").First(&shipment, "organization_id = ? AND meli_id = ?", orgID, meliID).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepo) Save(shipment *model.Shipment) error {
	return r.db.Save(shipment).Error
}

func (r *shipmentRepo) EnsureByMeliID(tx *gorm.DB, shipment *model.Shipment) (*model.Shipment, bool, error) {
	var existing model.Shipment
	err := tx.First(&existing, "meli_id = ?", shipment.MeliID).Error
	if err == nil {
		return &existing, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}
	if err := tx.Create(shipment).Error; err != nil {
		return nil, false, err
	}
	return shipment, true, nil
}

func (r *shipmentRepo) UpsertItem(tx *gorm.DB, item *model.ShipmentItem) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shipment_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sku", "expected_qty", "updated_at"}),
	}).Create(item).Error
}

func (r *shipmentRepo) IncrementScanned(tx *gorm.DB, itemID uuid.UUID) error {
	return tx.Model(&model.ShipmentItem{}).
		Where("id = ?", itemID).
		Update("scanned_qty", gorm.Expr("scanned_qty + 1")).Error
}

func (r *shipmentRepo) CountOpen(orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Shipment{}).
		Where("organization_id = ? AND status <> ?", orgID, model.ShipmentCompleted).
		Count(&count).Error
	return count, err
}
