package models

import "gorm.io/gorm"

// Product represents a product in the store catalog.
//
// Stock is only ever mutated through two paths: the clamped decrement that
// runs after a payment confirmation, and the replenishment that runs when a
// return is completed. Stock never goes negative; the decrement clamps at
// zero because a confirmed payment is authoritative over a stale stock count.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Active      bool    `json:"active" gorm:"default:true"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
