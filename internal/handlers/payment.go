// internal/handlers/payment.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/services"
	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /webhooks/stripe
//
// Stripe retries on any non-2xx response. Signature failures answer
// 400 so a misconfigured endpoint surfaces quickly; processing errors
// answer 500 so the event is redelivered.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		utils.BadRequestResponse(c, "failed to read webhook payload", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(payload, signature); err != nil {
		logrus.WithError(err).Error("Stripe webhook processing failed")
		if errors.Is(err, services.ErrInvalidWebhookSignature) {
			utils.BadRequestResponse(c, "invalid webhook signature", nil)
			return
		}
		utils.InternalErrorResponse(c, "webhook processing failed")
		return
	}

	c.Status(http.StatusOK)
}
