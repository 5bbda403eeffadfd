package model

// Organization is the tenant boundary: catalog, shipments, users, and the
// marketplace account all hang off one organization.
type Organization struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
}
