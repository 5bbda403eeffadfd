package model

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks on-hand quantity per product. Incremented one unit per
// successful scan during picking.
type Inventory struct {
	ProductID uuid.UUID `gorm:"type:uuid;primary_key" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
