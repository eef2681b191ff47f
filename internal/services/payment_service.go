// internal/services/payment_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/config"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/models"
)

// ErrInvalidWebhookSignature marks events that failed Stripe's
// signature check and must not be retried.
var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

type PaymentService struct {
	db     *gorm.DB
	config *config.Config
	orders *OrderService
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

func NewPaymentService(db *gorm.DB, config *config.Config, orders *OrderService) *PaymentService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
		orders: orders,
	}
}

// CreatePaymentIntentForOrder opens a Stripe PaymentIntent for a
// pending order. The order id rides along in the intent metadata so
// the webhook can find its way back.
func (s *PaymentService) CreatePaymentIntentForOrder(userID, orderID uuid.UUID) (*PaymentIntentResponse, error) {
	var order models.Order
	if err := s.db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.Status != models.OrderStatusPending {
		return nil, errors.New("order is not awaiting payment")
	}

	// Convert amount to cents for Stripe
	amountInCents := int64(order.Total * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(order.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("user_id", userID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	// Remember the intent so the order can be reconciled even if the
	// webhook metadata is ever missing
	order.PaymentReference = pi.ID
	if err := s.db.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// HandleWebhook verifies a Stripe event signature and applies the
// event. Only payment_intent.succeeded changes state; everything else
// is acknowledged and ignored.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.Payment.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		return s.applySucceededIntent(&pi)
	case "payment_intent.payment_failed":
		// Nothing to unwind, the order stays pending and can be retried
		return nil
	default:
		return nil
	}
}

func (s *PaymentService) applySucceededIntent(pi *stripe.PaymentIntent) error {
	orderIDStr, ok := pi.Metadata["order_id"]
	if !ok {
		return errors.New("payment intent has no order_id metadata")
	}

	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		return fmt.Errorf("invalid order_id in payment metadata: %w", err)
	}

	return s.orders.MarkPaid(orderID, pi.ID)
}

// RefundOrder refunds a paid order in full and marks it refunded.
func (s *PaymentService) RefundOrder(orderID uuid.UUID, reason string) error {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("order not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if order.Status != models.OrderStatusPaid {
		return errors.New("only paid orders can be refunded")
	}
	if order.PaymentReference == "" {
		return errors.New("order has no payment reference")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(order.PaymentReference),
		Reason:        stripe.String("requested_by_customer"),
	}
	params.AddMetadata("reason", reason)

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	order.Status = models.OrderStatusRefunded
	if err := s.db.Save(&order).Error; err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}

	return nil
}
