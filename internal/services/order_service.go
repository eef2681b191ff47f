// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/config"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

type OrderService struct {
	db            *gorm.DB
	cfg           *config.Config
	carts         *CartService
	notifications *NotificationService
}

type CheckoutRequest struct {
	ShippingInfo map[string]interface{} `json:"shipping_info" validate:"required"`
	Currency     string                 `json:"currency,omitempty"`
}

func NewOrderService(db *gorm.DB, cfg *config.Config, carts *CartService, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		cfg:           cfg,
		carts:         carts,
		notifications: notifications,
	}
}

// Checkout turns the current cart into a pending order. Each cart line
// becomes an order item with title, size and price copied from the
// product at this moment. The cart itself is left alone until payment
// succeeds, so an abandoned checkout keeps the wall design intact.
func (s *OrderService) Checkout(userID uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	cart, err := s.carts.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		variant, ok := item.Product.SizeAt(item.SizeIndex)
		if !ok {
			return nil, fmt.Errorf("cart item %s has an invalid size", item.ID)
		}
		if item.Product.Status != models.ProductStatusActive {
			return nil, fmt.Errorf("product %q is no longer available", item.Product.Title)
		}

		subtotal += variant.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Title:     item.Product.Title,
			SizeIndex: item.SizeIndex,
			WidthCM:   variant.WidthCM,
			HeightCM:  variant.HeightCM,
			Price:     variant.Price,
			Quantity:  item.Quantity,
		})
	}

	platformFee := subtotal * s.cfg.Payment.PlatformFeePercent / 100

	order := &models.Order{
		UserID:       userID,
		Status:       models.OrderStatusPending,
		Subtotal:     subtotal,
		PlatformFee:  platformFee,
		Total:        subtotal + platformFee,
		Currency:     currency,
		ShippingInfo: models.JSONB(req.ShippingInfo),
		Items:        orderItems,
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

func (s *OrderService) GetOrder(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) ListOrders(userID uuid.UUID, params *utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, *params, []string{"created_at", "total", "status"})
	query = utils.ApplyPagination(query, *params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := utils.CreatePaginationResult(orders, total, *params)
	return &result, nil
}

// MarkPaid transitions a pending order to paid, bumps product sales
// counters and clears the cart. Called from the payment webhook, so it
// must tolerate replays: a second call on a paid order is a no-op.
func (s *OrderService) MarkPaid(orderID uuid.UUID, paymentReference string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			return fmt.Errorf("order not found: %w", err)
		}

		if order.Status == models.OrderStatusPaid {
			return nil
		}
		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("order %s cannot be paid in status %s", order.ID, order.Status)
		}

		now := time.Now()
		order.Status = models.OrderStatusPaid
		order.PaymentReference = paymentReference
		order.PaidAt = &now

		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		for _, item := range order.Items {
			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
				UpdateColumn("sales_count", gorm.Expr("sales_count + ?", item.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to update sales count: %w", err)
			}
		}

		// Clear the cart inside the same transaction
		var cart models.Cart
		if err := tx.Where("user_id = ?", order.UserID).First(&cart).Error; err == nil {
			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("failed to clear cart: %w", err)
			}
		}

		// Confirmation email outside the hot path
		go func(o models.Order) {
			var user models.User
			if err := s.db.First(&user, o.UserID).Error; err == nil {
				_ = s.notifications.SendOrderConfirmationEmail(&user, &o)
			}
		}(order)

		return nil
	})
}

// CancelOrder cancels a pending order. Paid orders go through the
// refund flow instead.
func (s *OrderService) CancelOrder(userID, orderID uuid.UUID) error {
	var order models.Order
	if err := s.db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("order not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if order.Status != models.OrderStatusPending {
		return errors.New("only pending orders can be cancelled")
	}

	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now

	if err := s.db.Save(&order).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	return nil
}
