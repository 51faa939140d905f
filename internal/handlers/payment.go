// internal/handlers/payment.go
package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/policystack/agency-backend/internal/i18n"
	"github.com/policystack/agency-backend/internal/services"
	"github.com/policystack/agency-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /subscription/intent
func (h *PaymentHandler) CreateSubscriptionIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	intent, err := h.paymentService.CreateSubscriptionIntent(rc.ActorID)
	if err != nil {
		if strings.Contains(err.Error(), "locked") {
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthAccountLocked))
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyAuthUserNotFound)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"intent": intent,
	})
}

// GET /subscription/status
func (h *PaymentHandler) GetSubscriptionStatus(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	status, err := h.paymentService.GetSubscriptionStatus(rc.ActorID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"subscription": status,
	})
}

// POST /webhooks/stripe
//
// Unauthenticated; trust comes from the signature header.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 65536))
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read webhook payload", nil)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(payload, signature); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}

// POST /admin/users/:id/lock
func (h *PaymentHandler) LockAccount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	if err := h.paymentService.LockAccount(rc, id); err != nil {
		if strings.Contains(err.Error(), "admin") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyAuthUserNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminUserLocked),
	})
}

// POST /admin/users/:id/unlock
func (h *PaymentHandler) UnlockAccount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	rc, ok := requestContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	if err := h.paymentService.UnlockAccount(rc, id); err != nil {
		if strings.Contains(err.Error(), "admin") {
			utils.ForbiddenResponse(c, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, i18n.KeyAuthUserNotFound)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminUserUnlocked),
	})
}
