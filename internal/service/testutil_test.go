package service

import (
	"testing"

	"go-2pack-wms/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Organization{},
		&model.Product{},
		&model.Shipment{},
		&model.ShipmentItem{},
		&model.Scan{},
		&model.Inventory{},
		&model.MeliAccount{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
		&model.UserInvite{},
	))
	return db
}

func createTestOrg(t *testing.T, db *gorm.DB) *model.Organization {
	t.Helper()
	org := &model.Organization{Name: "Warehouse " + uuid.NewString()[:8]}
	require.NoError(t, db.Create(org).Error)
	return org
}

func createTestProduct(t *testing.T, db *gorm.DB, orgID uuid.UUID, sku, barcode, unitWeightKg string) *model.Product {
	t.Helper()
	product := &model.Product{
		OrganizationID: orgID,
		SKU:            sku,
		Barcode:        barcode,
		Title:          "Product " + sku,
		UnitWeightKg:   decimal.RequireFromString(unitWeightKg),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func createTestShipment(t *testing.T, db *gorm.DB, orgID uuid.UUID, status model.ShipmentStatus, tareKg string) *model.Shipment {
	t.Helper()
	shipment := &model.Shipment{
		OrganizationID: orgID,
		MeliID:         "REF-" + uuid.NewString()[:8],
		Status:         status,
		Type:           model.ShipmentOutbound,
		BoxTareKg:      decimal.RequireFromString(tareKg),
	}
	require.NoError(t, db.Create(shipment).Error)
	return shipment
}

func addTestItem(t *testing.T, db *gorm.DB, shipmentID uuid.UUID, product *model.Product, expected, scanned int) *model.ShipmentItem {
	t.Helper()
	item := &model.ShipmentItem{
		ShipmentID:  shipmentID,
		ProductID:   product.ID,
		SKU:         product.SKU,
		ExpectedQty: expected,
		ScannedQty:  scanned,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func countScans(t *testing.T, db *gorm.DB, scanType model.ScanType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Scan{}).Where("scan_type = ?", scanType).Count(&count).Error)
	return count
}
