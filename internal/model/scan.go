package model

import (
	"time"

	"github.com/google/uuid"
)

type ScanType string

const (
	ScanTypeItem             ScanType = "item"
	ScanTypeWeightDivergence ScanType = "weight_divergence"
)

// Scan is the append-only audit log: one row per successful barcode scan
// or per weight-divergence event. Never updated or deleted.
// ProductID is nil for shipment-level events (weight divergence).
type Scan struct {
	BaseModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProductID      *uuid.UUID `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Product        *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	OperatorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"operator_id"`
	ScannedAt      time.Time  `gorm:"not null;index" json:"scanned_at"`
	ScanType       ScanType   `gorm:"type:varchar(20);not null;default:'item'" json:"scan_type"`
	Metadata       string     `gorm:"type:text" json:"metadata,omitempty"` // JSON blob, e.g. weight readings
}
