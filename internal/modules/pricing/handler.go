package pricing

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/response"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/quotes", h.CreateQuote)
}

type quoteRequest struct {
	ResourceID int64     `json:"resource_id" binding:"required"`
	StartAt    time.Time `json:"start_at" binding:"required"`
	EndAt      time.Time `json:"end_at" binding:"required"`
	Adults     int       `json:"adults" binding:"required"`
	Children   int       `json:"children"`
}

func (h *Handler) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	q, err := h.service.Quote(c.Request.Context(), req.ResourceID, req.StartAt, req.EndAt, req.Adults, req.Children)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid interval")
		case errors.Is(err, ErrCapacityExceeded):
			response.Error(c, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", "Occupancy exceeds resource capacity")
		case errors.Is(err, ErrResourceInactive), errors.Is(err, repository.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute quote")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quote": q})
}
