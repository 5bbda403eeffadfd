package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ScanStatus string

const (
	ScanIdle       ScanStatus = "idle"
	ScanSuccess    ScanStatus = "success"
	ScanError      ScanStatus = "error"
	ScanDivergence ScanStatus = "divergence"
)

// ScanResult is what the picking floor sees after each barcode event or
// box-closure attempt. Problems are results, not errors: the session must
// stay usable for the next scan.
type ScanResult struct {
	Status     ScanStatus `json:"status"`
	Message    string     `json:"message"`
	ScannedSKU string     `json:"scanned_sku,omitempty"`
	Progress   int        `json:"progress"`
}

// Weight tolerance band: actual/theoretical must land in [0.95, 1.05].
var (
	weightToleranceLow  = decimal.NewFromFloat(0.95)
	weightToleranceHigh = decimal.NewFromFloat(1.05)
)

type PickingService interface {
	GetShipment(id uuid.UUID) (*model.Shipment, error)
	ProcessScan(shipmentID uuid.UUID, barcode string, operatorID uuid.UUID) (*ScanResult, error)
	CloseBox(shipmentID uuid.UUID, actualWeightKg decimal.Decimal, operatorID uuid.UUID) (*ScanResult, error)
}

type pickingService struct {
	shipmentRepo  repository.ShipmentRepository
	productRepo   repository.ProductRepository
	scanRepo      repository.ScanRepository
	inventoryRepo repository.InventoryRepository
	db            *gorm.DB
	wsHub         *ws.Hub
}

func NewPickingService(
	shipmentRepo repository.ShipmentRepository,
	productRepo repository.ProductRepository,
	scanRepo repository.ScanRepository,
	inventoryRepo repository.InventoryRepository,
	db *gorm.DB,
	hub *ws.Hub,
) PickingService {
	return &pickingService{
		shipmentRepo:  shipmentRepo,
		productRepo:   productRepo,
		scanRepo:      scanRepo,
		inventoryRepo: inventoryRepo,
		db:            db,
		wsHub:         hub,
	}
}

func (s *pickingService) GetShipment(id uuid.UUID) (*model.Shipment, error) {
	return s.shipmentRepo.FindByID(id)
}

func (s *pickingService) ProcessScan(shipmentID uuid.UUID, barcode string, operatorID uuid.UUID) (*ScanResult, error) {
	shipment, err := s.shipmentRepo.FindByID(shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.Status == model.ShipmentCompleted {
		return &ScanResult{
			Status:   ScanError,
			Message:  "Shipment is already completed",
			Progress: shipment.Progress(),
		}, nil
	}

	// 1. Database Lookup (Verification Phase)
	product, err := s.productRepo.FindByBarcode(shipment.OrganizationID, barcode)
	if err == gorm.ErrRecordNotFound {
		return &ScanResult{
			Status:   ScanError,
			Message:  fmt.Sprintf("Unknown Barcode: %s", barcode),
			Progress: shipment.Progress(),
		}, nil
	}
	if err != nil {
		log.Printf("Scan lookup failed for barcode %s: %v", barcode, err)
		return s.systemError(shipment), nil
	}

	// 2. Shipment Context Validation (match by product id or literal barcode)
	var item *model.ShipmentItem
	for i := range shipment.Items {
		candidate := &shipment.Items[i]
		if candidate.ProductID == product.ID || (candidate.Product != nil && candidate.Product.Barcode == barcode) {
			item = candidate
			break
		}
	}
	if item == nil {
		return &ScanResult{
			Status:   ScanError,
			Message:  fmt.Sprintf("Item not in this Shipment: %s", product.Title),
			Progress: shipment.Progress(),
		}, nil
	}

	// 3. Divergence Control: over-pick is rejected without mutating anything
	if item.ScannedQty >= item.ExpectedQty {
		return &ScanResult{
			Status:   ScanDivergence,
			Message:  fmt.Sprintf("OVERPICK: %s. Expected: %d", product.Title, item.ExpectedQty),
			Progress: shipment.Progress(),
		}, nil
	}

	// 4. Execute the scan transaction: audit log + inventory + line count
	err = s.db.Transaction(func(tx *gorm.DB) error {
		productID := product.ID
		scan := &model.Scan{
			OrganizationID: shipment.OrganizationID,
			ProductID:      &productID,
			OperatorID:     operatorID,
			ScannedAt:      time.Now(),
			ScanType:       model.ScanTypeItem,
		}
		if err := s.scanRepo.Create(tx, scan); err != nil {
			return err
		}
		if err := s.inventoryRepo.Increment(tx, product.ID); err != nil {
			return err
		}
		if err := s.shipmentRepo.IncrementScanned(tx, item.ID); err != nil {
			return err
		}

		// First scan moves a fresh shipment onto the picking floor
		if shipment.Status == model.ShipmentDraft || shipment.Status == model.ShipmentPending {
			if err := shipment.TransitionTo(model.ShipmentPicking); err != nil {
				return err
			}
			if err := tx.Model(&model.Shipment{}).Where("id = ?", shipment.ID).
				Update("status", shipment.Status).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Scan transaction failed for shipment %s: %v", shipment.ID, err)
		return s.systemError(shipment), nil
	}

	item.ScannedQty++

	s.broadcast(map[string]interface{}{
		"type":        "scan_update",
		"shipment_id": shipment.ID,
		"sku":         item.SKU,
		"scanned_qty": item.ScannedQty,
		"progress":    shipment.Progress(),
	})

	return &ScanResult{
		Status:     ScanSuccess,
		Message:    fmt.Sprintf("SCANNED: %s", product.Title),
		ScannedSKU: item.SKU,
		Progress:   shipment.Progress(),
	}, nil
}

func (s *pickingService) CloseBox(shipmentID uuid.UUID, actualWeightKg decimal.Decimal, operatorID uuid.UUID) (*ScanResult, error) {
	shipment, err := s.shipmentRepo.FindByID(shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.Status == model.ShipmentCompleted {
		return &ScanResult{Status: ScanError, Message: "Shipment is already completed", Progress: shipment.Progress()}, nil
	}

	progress := shipment.Progress()
	if progress < 100 {
		return &ScanResult{
			Status:   ScanError,
			Message:  fmt.Sprintf("Cannot close box at %d%% picked", progress),
			Progress: progress,
		}, nil
	}

	theoretical := shipment.TheoreticalWeightKg()

	// Undefined ratio (tare 0 and nothing weighable) is a validation failure,
	// never a silent pass.
	if theoretical.LessThanOrEqual(decimal.Zero) {
		return &ScanResult{
			Status:   ScanError,
			Message:  "Theoretical weight is zero; check tare and product weights",
			Progress: progress,
		}, nil
	}

	if shipment.Status == model.ShipmentPicking {
		if err := shipment.TransitionTo(model.ShipmentWeighing); err != nil {
			return nil, err
		}
		if err := s.shipmentRepo.Save(shipment); err != nil {
			return nil, err
		}
	}

	ratio := actualWeightKg.Div(theoretical)
	if ratio.LessThan(weightToleranceLow) || ratio.GreaterThan(weightToleranceHigh) {
		// Log the divergence; shipment stays open for correction.
		metadata, _ := json.Marshal(map[string]string{
			"shipment_id":    shipment.ID.String(),
			"theoretical_kg": theoretical.StringFixed(3),
			"actual_kg":      actualWeightKg.StringFixed(3),
		})
		divergence := &model.Scan{
			OrganizationID: shipment.OrganizationID,
			OperatorID:     operatorID,
			ScannedAt:      time.Now(),
			ScanType:       model.ScanTypeWeightDivergence,
			Metadata:       string(metadata),
		}
		if err := s.scanRepo.Create(s.db, divergence); err != nil {
			log.Printf("Failed to log weight divergence for shipment %s: %v", shipment.ID, err)
		}

		return &ScanResult{
			Status:   ScanDivergence,
			Message:  fmt.Sprintf("WEIGHT DIVERGENCE! Exp: %skg, Act: %skg", theoretical.StringFixed(3), actualWeightKg.StringFixed(3)),
			Progress: progress,
		}, nil
	}

	if err := shipment.TransitionTo(model.ShipmentCompleted); err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.Save(shipment); err != nil {
		return nil, err
	}

	s.broadcast(map[string]interface{}{
		"type":        "shipment_completed",
		"shipment_id": shipment.ID,
		"meli_id":     shipment.MeliID,
	})

	return &ScanResult{
		Status:   ScanSuccess,
		Message:  fmt.Sprintf("BOX CLOSED: shipment #%s completed", shipment.MeliID),
		Progress: progress,
	}, nil
}

func (s *pickingService) systemError(shipment *model.Shipment) *ScanResult {
	return &ScanResult{
		Status:   ScanError,
		Message:  "System Error during scan transaction",
		Progress: shipment.Progress(),
	}
}

func (s *pickingService) broadcast(payload map[string]interface{}) {
	if s.wsHub == nil {
		return
	}
	go func() {
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
