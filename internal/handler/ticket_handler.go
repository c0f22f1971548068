package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/service"
	"github.com/nexivent/nexivent-api/internal/ticketpdf"
)

// TicketHandler exposes ticket document generation: direct download from
// query parameters and delivery as an email attachment.
type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// EmailTicketRequest asks for a rendered ticket to be sent by email.
type EmailTicketRequest struct {
	Email      string `json:"email" binding:"required,email"`
	EventName  string `json:"event_name" binding:"required,max=200"`
	EventDate  string `json:"event_date" binding:"omitempty,max=100"`
	EventVenue string `json:"event_venue" binding:"omitempty,max=200"`
	UserName   string `json:"user_name" binding:"omitempty,max=100"`
	OrderID    string `json:"order_id" binding:"omitempty,max=64"`
}

// DownloadTicket renders a ticket straight from query parameters and streams
// it back as a PDF download. Nothing is persisted or emailed.
func (h *TicketHandler) DownloadTicket(c *gin.Context) {
	req := ticketpdf.TicketRequest{
		EventName:  c.Query("event"),
		EventDate:  c.Query("date"),
		EventVenue: c.Query("venue"),
		UserName:   c.Query("name"),
		OrderID:    c.Query("order"),
	}

	pdf, err := h.ticketService.RenderTicket(req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	writePDF(c, req.EventName, pdf)
}

// EmailTicket renders the ticket and sends it as an attachment.
func (h *TicketHandler) EmailTicket(c *gin.Context) {
	var req EmailTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	ticketReq := ticketpdf.TicketRequest{
		EventName:  req.EventName,
		EventDate:  req.EventDate,
		EventVenue: req.EventVenue,
		UserName:   req.UserName,
		OrderID:    req.OrderID,
	}
	if err := h.ticketService.EmailTicket(c.Request.Context(), req.Email, ticketReq); err != nil {
		h.handleTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ticket sent"})
}

func (h *TicketHandler) handleTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ticketpdf.ErrMissingEventName), errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "event name is required"})
	case errors.Is(err, ticketpdf.ErrRender):
		log.Printf("[TicketHandler] render failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render ticket"})
	case errors.Is(err, service.ErrEmailDelivery):
		log.Printf("[TicketHandler] delivery failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send ticket email"})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, service.ErrOrdersDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order storage is not configured"})
	default:
		log.Printf("[TicketHandler] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// writePDF streams document bytes as an attachment named after the event.
func writePDF(c *gin.Context, eventName string, pdf []byte) {
	filename := downloadFilename(eventName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func downloadFilename(eventName string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(eventName))
	if cleaned == "" {
		cleaned = "ticket"
	}
	return cleaned + ".pdf"
}
