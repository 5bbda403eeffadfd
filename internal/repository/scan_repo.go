package repository

import (
	"time"

	"go-2pack-wms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScanRepository interface {
	Create(tx *gorm.DB, scan *model.Scan) error
	FindByProduct(productID uuid.UUID) ([]model.Scan, error)
	CountSince(orgID uuid.UUID, since time.Time) (int64, error)
	GetScanMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]ScanMovementData, error)
	GetDashboardStats(orgID uuid.UUID) (*DashboardStats, error)
}

// ScanMovementData aggregates scan volume per day for the dashboard chart
type ScanMovementData struct {
	Date        string `json:"date"`
	Items       int    `json:"items"`
	Divergences int    `json:"divergences"`
}

// DashboardStats for the overview cards
type DashboardStats struct {
	TotalProducts int64 `json:"total_products"`
	OpenShipments int64 `json:"open_shipments"`
	ScansToday    int64 `json:"scans_today"`
}

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) ScanRepository {
	return &scanRepo{db}
}

func (r *scanRepo) Create(tx *gorm.DB, scan *model.Scan) error {
	return tx.Create(scan).Error
}

func (r *scanRepo) FindByProduct(productID uuid.UUID) ([]model.Scan, error) {
	var scans []model.Scan
	err := r.db.Where("product_id = ?", productID).Order("scanned_at DESC").Find(&scans).Error
	return scans, err
}

func (r *scanRepo) CountSince(orgID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Scan{}).
		Where("organization_id = ? AND scanned_at >= ?", orgID, since).
		Count(&count).Error
	return count, err
}

// dayStart is midnight in t's location, not UTC.
func dayStart(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func (r *scanRepo) GetDashboardStats(orgID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats

	r.db.Model(&model.Product{}).Where("organization_id = ?", orgID).Count(&stats.TotalProducts)
	r.db.Model(&model.Shipment{}).
		Where("organization_id = ? AND status <> ?", orgID, model.ShipmentCompleted).
		Count(&stats.OpenShipments)
	stats.ScansToday, _ = r.CountSince(orgID, dayStart(time.Now()))

	return &stats, nil
}

func (r *scanRepo) GetScanMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]ScanMovementData, error) {
	var results []ScanMovementData

	rows, err := r.db.Model(&model.Scan{}).
		Select(`
			DATE(scanned_at) as date,
			COALESCE(SUM(CASE WHEN scan_type = 'item' THEN 1 ELSE 0 END), 0) as items,
			COALESCE(SUM(CASE WHEN scan_type = 'weight_divergence' THEN 1 ELSE 0 END), 0) as divergences
		`).
		Where("organization_id = ? AND scanned_at BETWEEN ? AND ?", orgID, startDate, endDate).
		Group("DATE(scanned_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data ScanMovementData
		if err := rows.Scan(&data.Date, &data.Items, &data.Divergences); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
