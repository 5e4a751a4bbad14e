package payment

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/response"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

type Handler struct {
	service *Service
	// callbackToken is the shared secret the processor sends in
	// X-Callback-Token. Verification of the processor's own signature
	// scheme happens at the gateway in front of us.
	callbackToken string
}

func NewHandler(service *Service, callbackToken string) *Handler {
	return &Handler{service: service, callbackToken: callbackToken}
}

// RegisterWebhookRoutes wires the processor callback.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/callback", h.Callback)
}

// RegisterAdminRoutes wires the staff-facing ledger operations.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/reservations/:id/payments", h.ListForReservation)
	rg.POST("/payments/:id/refunds", h.CreateRefund)
}

func (h *Handler) Callback(c *gin.Context) {
	token := c.GetHeader("X-Callback-Token")
	if h.callbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid callback token")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid callback body")
		return
	}

	p, err := h.service.RecordPayment(c.Request.Context(), req)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListForReservation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid reservation ID")
		return
	}

	rows, err := h.service.ListForReservation(c.Request.Context(), id)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": rows})
}

func (h *Handler) CreateRefund(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid payment ID")
		return
	}

	var req RecordRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Amount and reason are required")
		return
	}

	actor := domain.Actor{Role: domain.RoleStaff}
	if v, ok := c.Get("actor"); ok {
		if a, ok := v.(domain.Actor); ok {
			actor = a
		}
	}

	refund, err := h.service.RecordRefund(c.Request.Context(), id, req.Amount, req.Reason, actor)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"refund": refund})
}

func writePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment request")
	case errors.Is(err, ErrRefundExceedsPayment):
		response.Error(c, http.StatusUnprocessableEntity, "REFUND_EXCEEDS_PAYMENT", "Refund exceeds remaining payment amount")
	case errors.Is(err, ErrRefundNotAllowed):
		response.Error(c, http.StatusConflict, "REFUND_NOT_ALLOWED", "Refund not allowed in current state")
	case errors.Is(err, ErrProviderUnavailable):
		response.Error(c, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "Payment provider unavailable")
	case errors.Is(err, repository.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment or reservation not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Payment operation failed")
	}
}
