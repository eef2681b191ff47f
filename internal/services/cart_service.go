// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

// CartService owns the server copy of the wall design. Each cart line
// is an independent placement, so adding the same product and size
// twice produces two lines rather than bumping a quantity.
type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	SizeIndex int              `json:"size_index" validate:"min=0"`
	Placement *PlacementParams `json:"placement,omitempty"`
}

// PlacementParams carries the durable placement representation:
// center position as fractions of the wall canvas and scale as a
// multiplier on the variant's base size.
type PlacementParams struct {
	PositionX float64 `json:"position_x" validate:"min=0,max=1"`
	PositionY float64 `json:"position_y" validate:"min=0,max=1"`
	Scale     float64 `json:"scale" validate:"gt=0"`
	Rotation  float64 `json:"rotation"`
	ZIndex    int     `json:"z_index"`
}

type ChangeSizeRequest struct {
	SizeIndex int `json:"size_index" validate:"min=0"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetOrCreateCart returns the user's cart, creating an empty one on
// first use. Items are preloaded with their products so callers can
// re-derive pixel placements without extra queries.
func (s *CartService) GetOrCreateCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.created_at ASC")
	}).Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		cart.Items = []models.CartItem{}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &cart, nil
}

// AddItem appends a new line to the cart. It never merges with an
// existing line; every placement lives on its own row.
func (s *CartService) AddItem(userID uuid.UUID, req *AddCartItemRequest) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.Status != models.ProductStatusActive {
		return nil, errors.New("product is not available")
	}

	if _, ok := product.SizeAt(req.SizeIndex); !ok {
		return nil, errors.New("invalid size index")
	}

	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	item := models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		SizeIndex: req.SizeIndex,
		Quantity:  1,
	}

	if req.Placement != nil {
		item.PositionX = &req.Placement.PositionX
		item.PositionY = &req.Placement.PositionY
		item.Scale = &req.Placement.Scale
		item.Rotation = req.Placement.Rotation
		item.ZIndex = req.Placement.ZIndex
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.db.Preload("Product").First(&item, item.ID)
	return &item, nil
}

// UpdatePlacement overwrites the placement columns of one cart line.
func (s *CartService) UpdatePlacement(userID, itemID uuid.UUID, req *PlacementParams) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	item, err := s.findUserItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	item.PositionX = &req.PositionX
	item.PositionY = &req.PositionY
	item.Scale = &req.Scale
	item.Rotation = req.Rotation
	item.ZIndex = req.ZIndex

	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update placement: %w", err)
	}

	s.db.Preload("Product").First(item, item.ID)
	return item, nil
}

// ChangeSize swaps a line to another size variant of the same product.
// The placement fractions keep their values; scale resets to 1 so the
// new variant renders at its base size.
func (s *CartService) ChangeSize(userID, itemID uuid.UUID, req *ChangeSizeRequest) (*models.CartItem, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	item, err := s.findUserItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := s.db.First(&product, item.ProductID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if _, ok := product.SizeAt(req.SizeIndex); !ok {
		return nil, errors.New("invalid size index")
	}

	item.SizeIndex = req.SizeIndex
	if item.Scale != nil {
		one := 1.0
		item.Scale = &one
	}

	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to change size: %w", err)
	}

	s.db.Preload("Product").First(item, item.ID)
	return item, nil
}

// RemoveItem deletes a line. Removing a line that is already gone is
// not an error, so retries and late clients converge to the same state.
func (s *CartService) RemoveItem(userID, itemID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	result := s.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}

	return nil
}

// ClearCart removes every line from the user's cart.
func (s *CartService) ClearCart(userID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// CartTotal sums the variant prices of every line.
func (s *CartService) CartTotal(cart *models.Cart) float64 {
	var total float64
	for _, item := range cart.Items {
		if variant, ok := item.Product.SizeAt(item.SizeIndex); ok {
			total += variant.Price * float64(item.Quantity)
		}
	}
	return total
}

func (s *CartService) findUserItem(userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	var item models.CartItem
	if err := s.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("cart item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &item, nil
}
