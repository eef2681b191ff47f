// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
)

type Cart struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`

	// Relationships
	User  User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// CartItem is one placed artwork instance. Quantity is always 1 in this
// domain: adding a product and placing it on the wall are the same act,
// so each placement gets its own line.
//
// The placement columns mirror the designer's durable representation:
// positions are fractions of the canvas in [0,1], scale multiplies the
// base physical size. They are nullable so the cart can also hold lines
// added outside the designer (product page "add to cart"), which have
// no placement yet.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID `json:"cart_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	SizeIndex int       `json:"size_index" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"default:1"`

	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`
	Scale     *float64 `json:"scale"`
	Rotation  float64  `json:"rotation" gorm:"default:0"`
	ZIndex    int      `json:"z_index" gorm:"default:0"`

	// Relationships
	Product Product `json:"product" gorm:"foreignKey:ProductID"`
}
