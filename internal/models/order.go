// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	UserID           uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status           OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Subtotal         float64     `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	PlatformFee      float64     `json:"platform_fee" gorm:"type:decimal(10,2);not null"`
	Total            float64     `json:"total" gorm:"type:decimal(10,2);not null"`
	Currency         string      `json:"currency" gorm:"size:3;default:'usd'"`
	PaymentReference string      `json:"payment_reference" gorm:"size:255;index"`
	ShippingInfo     JSONB       `json:"shipping_info" gorm:"type:jsonb"`
	PaidAt           *time.Time  `json:"paid_at"`
	CancelledAt      *time.Time  `json:"cancelled_at"`

	// Relationships
	User  User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem snapshots a cart line at checkout time. Title, size and
// price are copied so later product edits cannot rewrite order history.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	SizeIndex int       `json:"size_index" gorm:"not null"`
	WidthCM   float64   `json:"width_cm"`
	HeightCM  float64   `json:"height_cm"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"default:1"`

	// Relationships
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
