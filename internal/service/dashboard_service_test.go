package service

import (
	"testing"
	"time"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestScan(t *testing.T, db *gorm.DB, orgID uuid.UUID, scanType model.ScanType, at time.Time) {
	t.Helper()
	scan := &model.Scan{
		OrganizationID: orgID,
		OperatorID:     uuid.New(),
		ScannedAt:      at,
		ScanType:       scanType,
	}
	require.NoError(t, db.Create(scan).Error)
}

func TestDashboardStatsScopedToOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(repository.NewScanRepo(db))

	orgA := createTestOrg(t, db)
	orgB := createTestOrg(t, db)

	createTestProduct(t, db, orgA.ID, "SKU-A", "789000000001", "0.500")
	createTestShipment(t, db, orgA.ID, model.ShipmentPicking, "0.100")

	now := time.Now()
	createTestScan(t, db, orgA.ID, model.ScanTypeItem, now)
	createTestScan(t, db, orgA.ID, model.ScanTypeItem, now)
	createTestScan(t, db, orgB.ID, model.ScanTypeItem, now)

	statsA, err := svc.GetDashboardStats(orgA.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, statsA.TotalProducts)
	assert.EqualValues(t, 1, statsA.OpenShipments)
	assert.EqualValues(t, 2, statsA.ScansToday)

	statsB, err := svc.GetDashboardStats(orgB.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, statsB.TotalProducts)
	assert.EqualValues(t, 0, statsB.OpenShipments)
	assert.EqualValues(t, 1, statsB.ScansToday)
}

func TestDashboardStatsCountsFromLocalDayStart(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(repository.NewScanRepo(db))
	org := createTestOrg(t, db)

	now := time.Now()
	localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	createTestScan(t, db, org.ID, model.ScanTypeItem, localMidnight.Add(-time.Minute))
	createTestScan(t, db, org.ID, model.ScanTypeItem, now)

	stats, err := svc.GetDashboardStats(org.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ScansToday)
}

func TestScanMovementScopedToOrganization(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(repository.NewScanRepo(db))

	orgA := createTestOrg(t, db)
	orgB := createTestOrg(t, db)

	now := time.Now()
	createTestScan(t, db, orgA.ID, model.ScanTypeItem, now)
	createTestScan(t, db, orgA.ID, model.ScanTypeWeightDivergence, now)
	createTestScan(t, db, orgB.ID, model.ScanTypeItem, now)
	createTestScan(t, db, orgB.ID, model.ScanTypeItem, now)

	movement, err := svc.GetScanMovement(orgA.ID, 7)
	require.NoError(t, err)

	var items, divergences int
	for _, day := range movement {
		items += day.Items
		divergences += day.Divergences
	}
	assert.Equal(t, 1, items)
	assert.Equal(t, 1, divergences)
}
