package service

import "errors"

// Verification and ticket flow errors used by handlers for stable
// user-facing message mapping.
var (
	ErrInvalidVerificationCode = errors.New("invalid_verification_code")
	ErrVerificationExpired     = errors.New("verification_expired")
	ErrVerificationMismatch    = errors.New("verification_code_mismatch")
	ErrEmailDelivery           = errors.New("email_delivery_failed")
	ErrOrderNotFound           = errors.New("order_not_found")
	ErrOrdersDisabled          = errors.New("order_storage_not_configured")
)
