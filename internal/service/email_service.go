package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional emails. Delivery is attempted at most
// once per call (modulo transport-level retries below); failures propagate
// to the caller and are never swallowed.
type EmailService interface {
	SendVerificationCode(ctx context.Context, toEmail, toName, code string, ttl time.Duration, idempotencyKey string) error
	SendTicket(ctx context.Context, toEmail, eventName string, pdf []byte) error
}

// NoopEmailService is used when no email provider is configured.
type NoopEmailService struct{}

func (s *NoopEmailService) SendVerificationCode(ctx context.Context, toEmail, toName, code string, ttl time.Duration, idempotencyKey string) error {
	log.Printf("[EmailService] noop send verification code to=%s", toEmail)
	return nil
}

func (s *NoopEmailService) SendTicket(ctx context.Context, toEmail, eventName string, pdf []byte) error {
	log.Printf("[EmailService] noop send ticket to=%s event=%q (%d bytes)", toEmail, eventName, len(pdf))
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendVerificationCode(ctx context.Context, toEmail, toName, code string, ttl time.Duration, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	greeting := "Hello"
	if strings.TrimSpace(toName) != "" {
		greeting = "Hello " + strings.TrimSpace(toName)
	}
	expiry := formatTTL(ttl)

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your Nexivent verification code",
		Text:    fmt.Sprintf("%s, your verification code is %s. It expires in %s.", greeting, code, expiry),
		Html:    fmt.Sprintf("<p>%s, your verification code is <strong>%s</strong>.</p><p>It expires in %s.</p>", greeting, code, expiry),
	}

	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	return s.sendWithRetries(ctx, params, options)
}

func (s *ResendEmailService) SendTicket(ctx context.Context, toEmail, eventName string, pdf []byte) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}
	if len(pdf) == 0 {
		return fmt.Errorf("ticket attachment is empty")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Your ticket for %s", eventName),
		Html:    fmt.Sprintf("<p>Thank you for your purchase.</p><p>Your ticket for <strong>%s</strong> is attached. Present the QR code at the entrance.</p>", eventName),
		Attachments: []*resend.Attachment{
			{
				Filename:    attachmentFilename(eventName),
				Content:     pdf,
				ContentType: "application/pdf",
			},
		},
	}

	return s.sendWithRetries(ctx, params, &resend.SendEmailOptions{})
}

func (s *ResendEmailService) sendWithRetries(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}

func formatTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "a few minutes"
	}
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// attachmentFilename derives a safe file name from the event name.
func attachmentFilename(eventName string) string {
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
