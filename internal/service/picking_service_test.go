package service

import (
	"testing"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPickingFixture(t *testing.T) (PickingService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewPickingService(
		repository.NewShipmentRepo(db),
		repository.NewProductRepo(db),
		repository.NewScanRepo(db),
		repository.NewInventoryRepo(db),
		db,
		nil,
	)
	return svc, db
}

func TestProcessScanUnknownBarcode(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPending, "0.100")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "0.500")
	addTestItem(t, db, shipment.ID, product, 2, 0)

	result, err := svc.ProcessScan(shipment.ID, "000NOPE", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanError, result.Status)
	assert.Equal(t, "Unknown Barcode: 000NOPE", result.Message)

	// Nothing mutated: no audit row, no inventory, scanned count untouched.
	assert.EqualValues(t, 0, countScans(t, db, model.ScanTypeItem))
	var item model.ShipmentItem
	require.NoError(t, db.First(&item, "shipment_id = ?", shipment.ID).Error)
	assert.Equal(t, 0, item.ScannedQty)
}

func TestProcessScanItemNotInShipment(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPending, "0.100")
	inShipment := createTestProduct(t, db, org.ID, "SKU-IN", "789000000001", "0.500")
	stray := createTestProduct(t, db, org.ID, "SKU-OUT", "789000000002", "0.500")
	addTestItem(t, db, shipment.ID, inShipment, 2, 0)

	result, err := svc.ProcessScan(shipment.ID, stray.Barcode, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanError, result.Status)
	assert.Contains(t, result.Message, "Item not in this Shipment")
	assert.EqualValues(t, 0, countScans(t, db, model.ScanTypeItem))
}

func TestProcessScanOverpickLeavesStateUntouched(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPicking, "0.100")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "0.500")
	addTestItem(t, db, shipment.ID, product, 3, 3)

	result, err := svc.ProcessScan(shipment.ID, product.Barcode, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanDivergence, result.Status)
	assert.Equal(t, "OVERPICK: Product SKU-1. Expected: 3", result.Message)

	assert.EqualValues(t, 0, countScans(t, db, model.ScanTypeItem))
	var item model.ShipmentItem
	require.NoError(t, db.First(&item, "shipment_id = ?", shipment.ID).Error)
	assert.Equal(t, 3, item.ScannedQty)
}

func TestProcessScanSuccess(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPending, "0.100")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "0.500")
	addTestItem(t, db, shipment.ID, product, 5, 3)
	operator := uuid.New()

	result, err := svc.ProcessScan(shipment.ID, product.Barcode, operator)

	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, result.Status)
	assert.Equal(t, "SCANNED: Product SKU-1", result.Message)
	assert.Equal(t, "SKU-1", result.ScannedSKU)
	assert.Equal(t, 80, result.Progress)

	// Exactly one audit row, attributed to the operator.
	var scans []model.Scan
	require.NoError(t, db.Find(&scans, "scan_type = ?", model.ScanTypeItem).Error)
	require.Len(t, scans, 1)
	assert.Equal(t, operator, scans[0].OperatorID)
	assert.Equal(t, org.ID, scans[0].OrganizationID)
	require.NotNil(t, scans[0].ProductID)
	assert.Equal(t, product.ID, *scans[0].ProductID)

	// Line count and inventory both incremented.
	var item model.ShipmentItem
	require.NoError(t, db.First(&item, "shipment_id = ?", shipment.ID).Error)
	assert.Equal(t, 4, item.ScannedQty)

	var inv model.Inventory
	require.NoError(t, db.First(&inv, "product_id = ?", product.ID).Error)
	assert.Equal(t, 1, inv.Quantity)

	// First scan moved the pending shipment onto the floor.
	var stored model.Shipment
	require.NoError(t, db.First(&stored, "id = ?", shipment.ID).Error)
	assert.Equal(t, model.ShipmentPicking, stored.Status)
}

func TestProcessScanRejectsCompletedShipment(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentCompleted, "0.100")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "0.500")
	addTestItem(t, db, shipment.ID, product, 1, 1)

	result, err := svc.ProcessScan(shipment.ID, product.Barcode, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanError, result.Status)
}

func TestCloseBoxRequiresFullPick(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPicking, "0.500")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "2.000")
	addTestItem(t, db, shipment.ID, product, 5, 4)

	result, err := svc.CloseBox(shipment.ID, decimal.RequireFromString("8.5"), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanError, result.Status)
	assert.Equal(t, "Cannot close box at 80% picked", result.Message)
}

func TestCloseBoxWithinTolerance(t *testing.T) {
	// Theoretical: 0.500 + 1 * 2.000 = 2.500; 0.95 and 1.05 are inclusive.
	for _, actual := range []string{"2.375", "2.625", "2.500"} {
		svc, db := newPickingFixture(t)
		org := createTestOrg(t, db)
		shipment := createTestShipment(t, db, org.ID, model.ShipmentPicking, "0.500")
		product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "2.000")
		addTestItem(t, db, shipment.ID, product, 1, 1)

		result, err := svc.CloseBox(shipment.ID, decimal.RequireFromString(actual), uuid.New())

		require.NoError(t, err, "actual=%s", actual)
		assert.Equal(t, ScanSuccess, result.Status, "actual=%s", actual)

		var stored model.Shipment
		require.NoError(t, db.First(&stored, "id = ?", shipment.ID).Error)
		assert.Equal(t, model.ShipmentCompleted, stored.Status, "actual=%s", actual)
	}
}

func TestCloseBoxWeightDivergence(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPicking, "0.500")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "2.000")
	addTestItem(t, db, shipment.ID, product, 1, 1)
	operator := uuid.New()

	// 2.370 / 2.500 = 0.948, below tolerance.
	result, err := svc.CloseBox(shipment.ID, decimal.RequireFromString("2.370"), operator)

	require.NoError(t, err)
	assert.Equal(t, ScanDivergence, result.Status)
	assert.Equal(t, "WEIGHT DIVERGENCE! Exp: 2.500kg, Act: 2.370kg", result.Message)

	// Divergence is audited under the shipment's organization; the shipment
	// stays open in weighing.
	var divergence model.Scan
	require.NoError(t, db.First(&divergence, "scan_type = ?", model.ScanTypeWeightDivergence).Error)
	assert.Equal(t, shipment.OrganizationID, divergence.OrganizationID)
	var stored model.Shipment
	require.NoError(t, db.First(&stored, "id = ?", shipment.ID).Error)
	assert.Equal(t, model.ShipmentWeighing, stored.Status)

	// A corrected reading closes the box from weighing.
	result, err = svc.CloseBox(shipment.ID, decimal.RequireFromString("2.500"), operator)
	require.NoError(t, err)
	assert.Equal(t, ScanSuccess, result.Status)

	require.NoError(t, db.First(&stored, "id = ?", shipment.ID).Error)
	assert.Equal(t, model.ShipmentCompleted, stored.Status)
}

func TestCloseBoxZeroTheoreticalWeight(t *testing.T) {
	svc, db := newPickingFixture(t)
	org := createTestOrg(t, db)
	shipment := createTestShipment(t, db, org.ID, model.ShipmentPicking, "0")
	product := createTestProduct(t, db, org.ID, "SKU-1", "789000000001", "0")
	addTestItem(t, db, shipment.ID, product, 1, 1)

	result, err := svc.CloseBox(shipment.ID, decimal.RequireFromString("1.0"), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, ScanError, result.Status)
	assert.Contains(t, result.Message, "Theoretical weight is zero")
}
