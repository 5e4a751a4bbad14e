package channel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/pricing"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/response"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterWebhookRoutes carries the inbound channel callbacks. Auth is
// per-request: channel code in the path, shared key in X-Channel-Key.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/channels/:code/bookings", h.InboundBooking)
	rg.POST("/channels/:code/cancellations", h.InboundCancellation)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/channels", h.Connect)
	rg.GET("/channels", h.List)
	rg.DELETE("/channels/:id", h.Disconnect)
	rg.PUT("/allocations", h.SetAllocation)
	rg.POST("/allocations/adjust", h.Adjust)
	rg.GET("/resources/:id/allocations", h.ListAllocations)
}

func (h *Handler) Connect(c *gin.Context) {
	var req ConnectChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	ch, err := h.service.ConnectChannel(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ch)
}

func (h *Handler) List(c *gin.Context) {
	chans, err := h.service.ListChannels(c.Request.Context(), c.Query("include_inactive") != "true")
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, chans)
}

func (h *Handler) Disconnect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid channel id")
		return
	}

	if err := h.service.DisconnectChannel(c.Request.Context(), id, actorFrom(c)); err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"disconnected": true})
}

func (h *Handler) SetAllocation(c *gin.Context) {
	var req SetAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	alloc, err := h.service.SetChannelAllocation(c.Request.Context(), req.ResourceID, req.ChannelID, req.Count, actorFrom(c))
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, alloc)
}

func (h *Handler) Adjust(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	alloc, err := h.service.Allocate(c.Request.Context(), req.ResourceID, req.ChannelID, req.Delta, actorFrom(c))
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, alloc)
}

func (h *Handler) ListAllocations(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid resource id")
		return
	}

	allocs, err := h.service.ListAllocations(c.Request.Context(), id)
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, allocs)
}

func (h *Handler) InboundBooking(c *gin.Context) {
	ch, ok := h.authenticate(c)
	if !ok {
		return
	}

	var req ChannelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	r, err := h.service.ReconcileChannelBooking(c.Request.Context(), ch.ID, req)
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, r)
}

func (h *Handler) InboundCancellation(c *gin.Context) {
	ch, ok := h.authenticate(c)
	if !ok {
		return
	}

	var req ChannelCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	r, err := h.service.ReconcileChannelCancellation(c.Request.Context(), ch.ID, req)
	if err != nil {
		writeChannelError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) authenticate(c *gin.Context) (*domain.Channel, bool) {
	ch, err := h.service.VerifyWebhookKey(c.Request.Context(), c.Param("code"), c.GetHeader("X-Channel-Key"))
	if err != nil {
		switch {
		case errors.Is(err, ErrChannelInactive):
			response.Error(c, http.StatusForbidden, "CHANNEL_INACTIVE", "channel is disabled")
		case errors.Is(err, ErrInvalidKey):
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid channel key")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return nil, false
	}
	return ch, true
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get("actor"); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{Role: domain.RoleGuest}
}

func writeChannelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, pricing.ErrValidation), errors.Is(err, availability.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, pricing.ErrCapacityExceeded), errors.Is(err, availability.ErrCapacityExceeded):
		response.Error(c, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", "occupancy exceeds resource capacity")
	case errors.Is(err, pricing.ErrResourceInactive), errors.Is(err, availability.ErrResourceInactive):
		response.Error(c, http.StatusConflict, "RESOURCE_INACTIVE", "resource is not active")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "admin role required")
	case errors.Is(err, ErrOverAllocation):
		response.Error(c, http.StatusConflict, "OVER_ALLOCATION", "allocation would exceed sellable inventory")
	case errors.Is(err, ErrChannelInactive):
		response.Error(c, http.StatusConflict, "CHANNEL_INACTIVE", "channel is disabled")
	case errors.Is(err, ErrCancellationBlocked):
		response.Error(c, http.StatusConflict, "CANCELLATION_BLOCKED", "guest already checked in, operator notified")
	case errors.Is(err, repository.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
