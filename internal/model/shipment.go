package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentDraft     ShipmentStatus = "draft"
	ShipmentPicking   ShipmentStatus = "picking"
	ShipmentWeighing  ShipmentStatus = "weighing"
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentCompleted ShipmentStatus = "completed"
)

type ShipmentType string

const (
	ShipmentInbound  ShipmentType = "inbound"
	ShipmentOutbound ShipmentType = "outbound"
)

// validTransitions is the closed transition table for shipment statuses.
// There is no path out of completed.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentDraft:    {ShipmentPicking},
	ShipmentPending:  {ShipmentPicking, ShipmentCompleted},
	ShipmentPicking:  {ShipmentWeighing, ShipmentCompleted},
	ShipmentWeighing: {ShipmentPicking, ShipmentCompleted},
}

// CanTransition reports whether moving from -> to is a legal status change.
func (s ShipmentStatus) CanTransition(to ShipmentStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Shipment struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id" validate:"uuid_required"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	// External marketplace reference. Sync upserts by this key.
	MeliID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"meli_id" validate:"required"`

	Status    ShipmentStatus  `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Type      ShipmentType    `gorm:"type:varchar(10);not null" json:"type" validate:"required,oneof=inbound outbound"`
	BoxTareKg decimal.Decimal `gorm:"type:numeric(10,3)" json:"box_tare_kg"`

	Items []ShipmentItem `gorm:"foreignKey:ShipmentID" json:"items,omitempty"`
}

// TransitionTo mutates the status, rejecting illegal transitions.
func (s *Shipment) TransitionTo(to ShipmentStatus) error {
	if !s.Status.CanTransition(to) {
		return fmt.Errorf("illegal shipment transition %s -> %s", s.Status, to)
	}
	s.Status = to
	return nil
}

// TotalExpected sums expected quantities over all lines.
func (s *Shipment) TotalExpected() int {
	total := 0
	for _, item := range s.Items {
		total += item.ExpectedQty
	}
	return total
}

// TotalScanned sums scanned quantities over all lines.
func (s *Shipment) TotalScanned() int {
	total := 0
	for _, item := range s.Items {
		total += item.ScannedQty
	}
	return total
}

// Progress is the picking completion percentage, rounded. Display-only,
// but also gates box closure.
func (s *Shipment) Progress() int {
	expected := s.TotalExpected()
	if expected == 0 {
		return 0
	}
	return int(float64(s.TotalScanned())/float64(expected)*100 + 0.5)
}

// TheoreticalWeightKg is tare plus the scanned units times unit weight,
// compared against the physical scale reading at box closure.
func (s *Shipment) TheoreticalWeightKg() decimal.Decimal {
	total := s.BoxTareKg
	for _, item := range s.Items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.UnitWeightKg.Mul(decimal.NewFromInt(int64(item.ScannedQty))))
	}
	return total
}

// ShipmentItem is one product line within a shipment.
// Unique per (shipment_id, product_id); sync upserts on that pair.
type ShipmentItem struct {
	BaseModel
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shipment_product" json:"shipment_id" validate:"uuid_required"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shipment_product" json:"product_id" validate:"uuid_required"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	SKU         string `gorm:"type:varchar(100)" json:"sku"`
	ExpectedQty int    `gorm:"not null;default:0" json:"expected_qty" validate:"gte=0"`
	ScannedQty  int    `gorm:"not null;default:0" json:"scanned_qty"`
}
