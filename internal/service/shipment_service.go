package service

import (
	"fmt"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShipmentService interface {
	GetAll(orgID uuid.UUID, filter repository.ShipmentFilter) ([]model.Shipment, error)
	GetByID(id uuid.UUID) (*model.Shipment, error)
	CreateDraft(req *CreateShipmentRequest, orgID uuid.UUID, userID string) (*model.Shipment, error)
}

// CreateShipmentRequest creates a manual (non-synced) box.
type CreateShipmentRequest struct {
	Reference string             `json:"reference" validate:"required"`
	Type      model.ShipmentType `json:"type" validate:"required,oneof=inbound outbound"`
	BoxTareKg decimal.Decimal    `json:"box_tare_kg"`
	Items     []struct {
		ProductID   uuid.UUID `json:"product_id" validate:"uuid_required"`
		ExpectedQty int       `json:"expected_qty" validate:"required,gt=0"`
	} `json:"items"`
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	productRepo  repository.ProductRepository
}

func NewShipmentService(shipmentRepo repository.ShipmentRepository, productRepo repository.ProductRepository) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		productRepo:  productRepo,
	}
}

func (s *shipmentService) GetAll(orgID uuid.UUID, filter repository.ShipmentFilter) ([]model.Shipment, error) {
	return s.shipmentRepo.FindAll(orgID, filter)
}

func (s *shipmentService) GetByID(id uuid.UUID) (*model.Shipment, error) {
	return s.shipmentRepo.FindByID(id)
}

func (s *shipmentService) CreateDraft(req *CreateShipmentRequest, orgID uuid.UUID, userID string) (*model.Shipment, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	shipment := &model.Shipment{
		OrganizationID: orgID,
		MeliID:         req.Reference,
		Status:         model.ShipmentDraft,
		Type:           req.Type,
		BoxTareKg:      req.BoxTareKg,
	}
	shipment.CreatedBy = userID
	shipment.UpdatedBy = userID

	for _, line := range req.Items {
		product, err := s.productRepo.FindByID(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", line.ProductID)
		}
		item := model.ShipmentItem{
			ProductID:   product.ID,
			SKU:         product.SKU,
			ExpectedQty: line.ExpectedQty,
		}
		item.CreatedBy = userID
		item.UpdatedBy = userID
		shipment.Items = append(shipment.Items, item)
	}

	if err := s.shipmentRepo.Create(shipment); err != nil {
		return nil, err
	}
	return s.shipmentRepo.FindByID(shipment.ID)
}
