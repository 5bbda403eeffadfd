package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/internal/ws"
	"go-2pack-wms/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSKUExists = errors.New("SKU already exists in this organization")

type CatalogService interface {
	CreateProduct(req *model.Product, userID string) error
	UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error)
	DeleteProduct(id uuid.UUID, userID string) error
	GetAllProducts(orgID uuid.UUID) ([]model.Product, error)
	GetProductByID(id uuid.UUID) (*model.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewCatalogService(productRepo repository.ProductRepository, db *gorm.DB, hub *ws.Hub) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		db:          db,
		wsHub:       hub,
	}
}

func (s *catalogService) CreateProduct(req *model.Product, userID string) error {
	// 1. Struct validation
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. SKU uniqueness is per organization
	existing, _ := s.productRepo.FindBySKU(req.OrganizationID, req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return ErrSKUExists
	}

	req.CreatedBy = userID
	req.UpdatedBy = userID

	if err := s.productRepo.Create(req); err != nil {
		return err
	}

	s.broadcast(map[string]interface{}{
		"type":   "catalog_update",
		"action": "product_created",
		"product": map[string]interface{}{
			"id":      req.ID,
			"sku":     req.SKU,
			"barcode": req.Barcode,
			"title":   req.Title,
		},
	})
	return nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	var updated *model.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&existing, "id = ?", id).Error; err != nil {
			return errors.New("product not found")
		}

		existing.SKU = req.SKU
		existing.Barcode = req.Barcode
		existing.Title = req.Title
		existing.UnitWeightKg = req.UnitWeightKg
		existing.Dimensions = req.Dimensions
		existing.ImageURL = req.ImageURL
		existing.UpdatedBy = userID

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		updated = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(map[string]interface{}{
		"type":   "catalog_update",
		"action": "product_updated",
		"product": map[string]interface{}{
			"id":    updated.ID,
			"sku":   updated.SKU,
			"title": updated.Title,
		},
	})
	return updated, nil
}

func (s *catalogService) DeleteProduct(id uuid.UUID, userID string) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		return errors.New("product not found")
	}
	return s.productRepo.Delete(id)
}

func (s *catalogService) GetAllProducts(orgID uuid.UUID) ([]model.Product, error) {
	return s.productRepo.FindAll(orgID)
}

func (s *catalogService) GetProductByID(id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(id)
}

func (s *catalogService) broadcast(payload map[string]interface{}) {
	if s.wsHub == nil {
		return
	}
	go func() {
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
