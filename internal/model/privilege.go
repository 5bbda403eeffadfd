package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:invite", Name: "Invite User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Product catalog
	{Code: "product:view", Name: "View Product"},
	{Code: "product:create", Name: "Create Product"},
	{Code: "product:update", Name: "Update Product"},
	{Code: "product:delete", Name: "Delete Product"},
	// Shipments and picking
	{Code: "shipment:view", Name: "View Shipment"},
	{Code: "shipment:create", Name: "Create Shipment"},
	{Code: "picking:scan", Name: "Scan Items"},
	{Code: "picking:close", Name: "Close Master Box"},
	// Marketplace linkage
	{Code: "sync:run", Name: "Run Marketplace Sync"},
	{Code: "meli:manage", Name: "Manage Marketplace Account"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}

// OperatorPrivilegeCodes is the floor-level subset granted to OPERATOR.
var OperatorPrivilegeCodes = []string{
	"product:view",
	"shipment:view",
	"picking:scan",
	"picking:close",
	"dashboard:view",
}
