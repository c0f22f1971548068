package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/service"
)

// VerificationHandler exposes the send-code / confirm-code endpoints for the
// registration and password-reset flows.
type VerificationHandler struct {
	verificationService *service.VerificationService
}

func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

// SendCodeRequest asks for a fresh verification code.
type SendCodeRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
}

// ConfirmCodeRequest redeems a previously emailed code.
type ConfirmCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

func (h *VerificationHandler) SendRegistrationCode(c *gin.Context) {
	h.sendCode(c, service.PurposeRegistration)
}

func (h *VerificationHandler) SendPasswordResetCode(c *gin.Context) {
	h.sendCode(c, service.PurposePasswordReset)
}

func (h *VerificationHandler) ConfirmRegistrationCode(c *gin.Context) {
	h.confirmCode(c, service.PurposeRegistration)
}

func (h *VerificationHandler) ConfirmPasswordResetCode(c *gin.Context) {
	h.confirmCode(c, service.PurposePasswordReset)
}

func (h *VerificationHandler) sendCode(c *gin.Context, purpose service.VerificationPurpose) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := h.verificationService.SendCode(c.Request.Context(), purpose, req.Email, req.DisplayName); err != nil {
		h.handleVerificationError(c, err)
		return
	}

	// The code travels only by email; it is never echoed into the response.
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

func (h *VerificationHandler) confirmCode(c *gin.Context, purpose service.VerificationPurpose) {
	var req ConfirmCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := h.verificationService.ConfirmCode(c.Request.Context(), purpose, req.Email, req.Code); err != nil {
		h.handleVerificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (h *VerificationHandler) handleVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
	case errors.Is(err, service.ErrInvalidVerificationCode), errors.Is(err, service.ErrVerificationExpired):
		// Not-found and expired are indistinguishable to callers on purpose.
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
	case errors.Is(err, service.ErrVerificationMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect code"})
	case errors.Is(err, service.ErrEmailDelivery):
		log.Printf("[VerificationHandler] delivery failure: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send verification email"})
	default:
		log.Printf("[VerificationHandler] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
