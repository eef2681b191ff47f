// internal/models/product.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SizeVariant is one purchasable print size of an artwork. Physical
// dimensions are in centimeters; price is per single print.
type SizeVariant struct {
	WidthCM  float64 `json:"width_cm"`
	HeightCM float64 `json:"height_cm"`
	Price    float64 `json:"price"`
}

type SizeVariantList []SizeVariant

func (l SizeVariantList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *SizeVariantList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("size variants: unsupported scan type")
	}
}

type Product struct {
	BaseModel
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    string          `json:"category" gorm:"size:100;index"`
	ImageURL    string          `json:"image_url" gorm:"size:1024"`
	ImageKey    string          `json:"-" gorm:"size:512"`
	Sizes       SizeVariantList `json:"sizes" gorm:"type:jsonb;not null"`
	Tags        pq.StringArray  `json:"tags" gorm:"type:text[]"`
	Status      ProductStatus   `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ViewCount   int64           `json:"view_count" gorm:"default:0"`
	SalesCount  int64           `json:"sales_count" gorm:"default:0"`

	// Relationships
	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// SizeAt returns the size variant at index, or false when the index is
// out of range for this product.
func (p *Product) SizeAt(index int) (SizeVariant, bool) {
	if index < 0 || index >= len(p.Sizes) {
		return SizeVariant{}, false
	}
	return p.Sizes[index], true
}
