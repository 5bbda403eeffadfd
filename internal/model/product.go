package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BarcodeUnknown is the sentinel barcode for products auto-created during
// marketplace sync when no local catalog match exists by SKU.
const BarcodeUnknown = "UNKNOWN"

// Dimensions of a single unit, in centimeters.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Product struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_org_sku" json:"organization_id" validate:"uuid_required"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_org_sku" json:"sku" validate:"required"`
	Barcode      string          `gorm:"type:varchar(100);not null;index" json:"barcode"`
	Title        string          `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	UnitWeightKg decimal.Decimal `gorm:"type:numeric(10,3)" json:"unit_weight_kg"`
	Dimensions   Dimensions      `gorm:"embedded;embeddedPrefix:dim_" json:"dimensions"`
	ImageURL     string          `gorm:"type:varchar(512)" json:"image_url"`
}
