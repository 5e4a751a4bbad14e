package booking

import (
	"context"
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

// RegisterPublicRoutes wires the guest-facing intake flow.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.POST("/bookings/:ref/confirm", h.Confirm)
	rg.POST("/bookings/:ref/cancel", h.Cancel)
	rg.GET("/bookings/:ref", h.GetByReference)
}

// RegisterAdminRoutes wires the staff-facing lifecycle operations.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/reservations", h.ListReservations)
	rg.POST("/reservations/:id/check-in", h.CheckIn)
	rg.POST("/reservations/:id/no-show", h.NoShow)
	rg.POST("/reservations/:id/complete", h.Complete)
	rg.POST("/reservations/:id/cancel", h.CancelByID)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"reservation": r})
}

func (h *Handler) Confirm(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}

	updated, err := h.service.Confirm(c.Request.Context(), r.ID, actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reservation": updated})
}

func (h *Handler) Cancel(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), r.ID, req.Reason, actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reservation": updated})
}

func (h *Handler) GetByReference(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) ListReservations(c *gin.Context) {
	resourceID, _ := strconv.ParseInt(c.Query("resource_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.service.ListReservations(c.Request.Context(), resourceID, limit, offset, actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reservations": rows})
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.applyByID(c, h.service.CheckIn)
}

func (h *Handler) NoShow(c *gin.Context) {
	h.applyByID(c, h.service.NoShow)
}

func (h *Handler) Complete(c *gin.Context) {
	h.applyByID(c, h.service.Complete)
}

func (h *Handler) CancelByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid reservation ID")
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), id, req.Reason, actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reservation": updated})
}

func (h *Handler) applyByID(c *gin.Context, fn func(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error)) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid reservation ID")
		return
	}

	updated, err := fn(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reservation": updated})
}

func (h *Handler) lookup(c *gin.Context) (*domain.Reservation, bool) {
	r, err := h.service.GetByReference(c.Request.Context(), c.Param("ref"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load reservation")
		}
		return nil, false
	}
	return r, true
}

// actorFrom reads the actor the auth middleware attached; unauthenticated
// public calls act as a guest.
func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get("actor"); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{Role: domain.RoleGuest}
}

func writeBookingError(c *gin.Context, err error) {
	var conflictErr *availability.ConflictError
	var transitionErr *TransitionError

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, pricing.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(c, http.StatusConflict, "CONFLICT",
			"Resource is not available for the selected interval",
			gin.H{"blocking_reservation_ids": conflictErr.BlockingIDs})
	case errors.Is(err, availability.ErrCapacityExceeded), errors.Is(err, pricing.ErrCapacityExceeded):
		response.Error(c, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", "Occupancy exceeds resource capacity")
	case errors.As(err, &transitionErr):
		response.ErrorWithDetails(c, http.StatusConflict, "INVALID_TRANSITION", transitionErr.Error(),
			gin.H{"current_status": transitionErr.From})
	case errors.Is(err, ErrHoldExpired):
		response.Error(c, http.StatusConflict, "HOLD_EXPIRED", "The hold on this reservation has expired")
	case errors.Is(err, ErrCancelRejected):
		response.Error(c, http.StatusUnprocessableEntity, "CANCEL_REJECTED", "Cancellation not allowed by policy")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	case errors.Is(err, availability.ErrResourceInactive), errors.Is(err, pricing.ErrResourceInactive),
		errors.Is(err, repository.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource or reservation not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Booking operation failed")
	}
}
