package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexivent/nexivent-api/internal/domain/entity"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/service"
)

// OrderHandler exposes the ticket-order endpoints. Orders are written by the
// checkout backend and read back when a member re-downloads or re-sends a
// ticket; these routes are only mounted when Postgres is configured.
type OrderHandler struct {
	ticketService *service.TicketService
}

func NewOrderHandler(ticketService *service.TicketService) *OrderHandler {
	return &OrderHandler{ticketService: ticketService}
}

// CreateOrderRequest records a completed purchase.
type CreateOrderRequest struct {
	ID         string `json:"id" binding:"omitempty,max=36"`
	EventName  string `json:"event_name" binding:"required,max=200"`
	EventDate  string `json:"event_date" binding:"omitempty,max=100"`
	EventVenue string `json:"event_venue" binding:"omitempty,max=200"`
	UserName   string `json:"user_name" binding:"omitempty,max=100"`
	UserEmail  string `json:"user_email" binding:"required,email"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	order := &entity.TicketOrder{
		ID:         req.ID,
		EventName:  req.EventName,
		EventDate:  req.EventDate,
		EventVenue: req.EventVenue,
		UserName:   req.UserName,
		UserEmail:  req.UserEmail,
	}
	if err := h.ticketService.CreateOrder(c.Request.Context(), order); err != nil {
		h.handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// DownloadOrderTicket streams the ticket PDF for a stored order.
func (h *OrderHandler) DownloadOrderTicket(c *gin.Context) {
	req, err := h.ticketService.TicketForOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	pdf, err := h.ticketService.RenderTicket(req)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	writePDF(c, req.EventName, pdf)
}

// EmailOrderTicket re-sends the ticket to the order's purchaser.
func (h *OrderHandler) EmailOrderTicket(c *gin.Context) {
	if err := h.ticketService.EmailOrderTicket(c.Request.Context(), c.Param("id")); err != nil {
		h.handleOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ticket sent"})
}

func (h *OrderHandler) handleOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "order already exists"})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, service.ErrOrdersDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order storage is not configured"})
	case errors.Is(err, service.ErrEmailDelivery):
		log.Printf("[OrderHandler] delivery failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send ticket email"})
	default:
		log.Printf("[OrderHandler] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
