package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nexivent/nexivent-api/internal/domain/entity"
	"github.com/nexivent/nexivent-api/internal/domain/repository"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/ticketpdf"
)

// TicketService renders ticket documents and dispatches them by email.
// The order repository is optional; without it only the stateless
// render/email paths are available.
type TicketService struct {
	generator    *ticketpdf.Generator
	emailService EmailService
	orderRepo    repository.TicketOrderRepository
}

func NewTicketService(
	generator *ticketpdf.Generator,
	emailService EmailService,
	orderRepo repository.TicketOrderRepository,
) (*TicketService, error) {
	if generator == nil {
		return nil, fmt.Errorf("ticket generator is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	return &TicketService{
		generator:    generator,
		emailService: emailService,
		orderRepo:    orderRepo,
	}, nil
}

// RenderTicket produces the PDF bytes for a request.
func (s *TicketService) RenderTicket(req ticketpdf.TicketRequest) ([]byte, error) {
	return s.generator.Render(req)
}

// EmailTicket renders the document and sends it as a PDF attachment.
func (s *TicketService) EmailTicket(ctx context.Context, toEmail string, req ticketpdf.TicketRequest) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("%w: empty recipient email", apperrors.ErrValidation)
	}

	pdf, err := s.generator.Render(req)
	if err != nil {
		return err
	}
	if err := s.emailService.SendTicket(ctx, toEmail, req.EventName, pdf); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// CreateOrder records a completed purchase reported by the checkout backend.
// Assigns a UUID when the caller did not bring one.
func (s *TicketService) CreateOrder(ctx context.Context, order *entity.TicketOrder) error {
	if s.orderRepo == nil {
		return ErrOrdersDisabled
	}
	if order == nil || strings.TrimSpace(order.EventName) == "" || strings.TrimSpace(order.UserEmail) == "" {
		return fmt.Errorf("%w: event name and user email are required", apperrors.ErrValidation)
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if err := s.orderRepo.Create(order); err != nil {
		return fmt.Errorf("failed to create ticket order: %w", err)
	}
	return nil
}

// TicketForOrder loads a stored order and builds the document request for it.
func (s *TicketService) TicketForOrder(ctx context.Context, orderID string) (ticketpdf.TicketRequest, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return ticketpdf.TicketRequest{}, err
	}
	return orderTicketRequest(order), nil
}

// EmailOrderTicket re-sends the ticket for a stored order to its purchaser.
func (s *TicketService) EmailOrderTicket(ctx context.Context, orderID string) error {
	order, err := s.getOrder(orderID)
	if err != nil {
		return err
	}
	return s.EmailTicket(ctx, order.UserEmail, orderTicketRequest(order))
}

func (s *TicketService) getOrder(orderID string) (*entity.TicketOrder, error) {
	if s.orderRepo == nil {
		return nil, ErrOrdersDisabled
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: empty order id", apperrors.ErrValidation)
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load ticket order: %w", err)
	}
	return order, nil
}

func orderTicketRequest(order *entity.TicketOrder) ticketpdf.TicketRequest {
	return ticketpdf.TicketRequest{
		EventName:  order.EventName,
		EventDate:  order.EventDate,
		EventVenue: order.EventVenue,
		UserName:   order.UserName,
		OrderID:    order.ID,
	}
}
