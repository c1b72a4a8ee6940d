package models

import "time"

// Warehouse carries the single-default invariant: at most one active
// warehouse has is_default = true, maintained by clearing all defaults before
// setting a new one inside one transaction.
type Warehouse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Address   *string   `gorm:"size:255" json:"address"`
	Phone     *string   `gorm:"size:40" json:"phone"`
	Email     *string   `gorm:"size:120" json:"email"`
	ManagerID *uint     `json:"manager_id"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
