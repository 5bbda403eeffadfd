package service

import (
	"time"

	"go-2pack-wms/internal/repository"

	"github.com/google/uuid"
)

type DashboardService interface {
	GetScanMovement(orgID uuid.UUID, days int) ([]repository.ScanMovementData, error)
	GetDashboardStats(orgID uuid.UUID) (*repository.DashboardStats, error)
}

type dashboardService struct {
	scanRepo repository.ScanRepository
}

func NewDashboardService(scanRepo repository.ScanRepository) DashboardService {
	return &dashboardService{scanRepo: scanRepo}
}

func (s *dashboardService) GetScanMovement(orgID uuid.UUID, days int) ([]repository.ScanMovementData, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.scanRepo.GetScanMovement(orgID, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(orgID uuid.UUID) (*repository.DashboardStats, error) {
	return s.scanRepo.GetDashboardStats(orgID)
}
