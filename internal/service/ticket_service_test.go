package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexivent/nexivent-api/internal/domain/entity"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
	"github.com/nexivent/nexivent-api/internal/ticketpdf"
)

// fakeOrderRepo is an in-test TicketOrderRepository.
type fakeOrderRepo struct {
	orders map[string]*entity.TicketOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*entity.TicketOrder)}
}

func (f *fakeOrderRepo) Create(order *entity.TicketOrder) error {
	if _, exists := f.orders[order.ID]; exists {
		return apperrors.ErrConflict
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(id string) (*entity.TicketOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func newTicketFixture(t *testing.T) (*TicketService, *fakeEmailService, *fakeOrderRepo) {
	t.Helper()
	emails := &fakeEmailService{}
	orders := newFakeOrderRepo()
	svc, err := NewTicketService(ticketpdf.NewGenerator(), emails, orders)
	require.NoError(t, err)
	return svc, emails, orders
}

func TestRenderTicket(t *testing.T) {
	svc, _, _ := newTicketFixture(t)

	pdf, err := svc.RenderTicket(ticketpdf.TicketRequest{EventName: "Showcase"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestEmailTicket_SendsAttachment(t *testing.T) {
	svc, emails, _ := newTicketFixture(t)

	err := svc.EmailTicket(context.Background(), "member@example.com", ticketpdf.TicketRequest{
		EventName: "Showcase",
		EventDate: "2025-09-21",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, emails.sentTickets)
	assert.Equal(t, "member@example.com", emails.lastTo)
	assert.Equal(t, "Showcase", emails.lastEvent)
	assert.True(t, bytes.HasPrefix(emails.lastTicket, []byte("%PDF-")))
}

func TestEmailTicket_RenderErrorPassesThrough(t *testing.T) {
	svc, emails, _ := newTicketFixture(t)

	err := svc.EmailTicket(context.Background(), "member@example.com", ticketpdf.TicketRequest{})
	assert.ErrorIs(t, err, ticketpdf.ErrMissingEventName)
	assert.Zero(t, emails.sentTickets, "nothing must be sent when rendering fails")
}

func TestEmailTicket_DeliveryFailurePropagates(t *testing.T) {
	emails := &fakeEmailService{failWith: errors.New("smtp down")}
	svc, err := NewTicketService(ticketpdf.NewGenerator(), emails, nil)
	require.NoError(t, err)

	err = svc.EmailTicket(context.Background(), "member@example.com", ticketpdf.TicketRequest{EventName: "Showcase"})
	assert.ErrorIs(t, err, ErrEmailDelivery)
}

func TestEmailTicket_EmptyRecipient(t *testing.T) {
	svc, _, _ := newTicketFixture(t)

	err := svc.EmailTicket(context.Background(), " ", ticketpdf.TicketRequest{EventName: "Showcase"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateOrder_AssignsID(t *testing.T) {
	svc, _, orders := newTicketFixture(t)

	order := &entity.TicketOrder{
		EventName: "Showcase",
		UserEmail: "member@example.com",
	}
	require.NoError(t, svc.CreateOrder(context.Background(), order))
	assert.NotEmpty(t, order.ID)
	assert.Contains(t, orders.orders, order.ID)
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.CreateOrder(ctx, &entity.TicketOrder{UserEmail: "m@example.com"}), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.CreateOrder(ctx, &entity.TicketOrder{EventName: "Showcase"}), apperrors.ErrValidation)
}

func TestCreateOrder_WithoutRepo(t *testing.T) {
	svc, err := NewTicketService(ticketpdf.NewGenerator(), &fakeEmailService{}, nil)
	require.NoError(t, err)

	err = svc.CreateOrder(context.Background(), &entity.TicketOrder{EventName: "Showcase", UserEmail: "m@example.com"})
	assert.ErrorIs(t, err, ErrOrdersDisabled)
}

func TestTicketForOrder(t *testing.T) {
	svc, _, _ := newTicketFixture(t)
	ctx := context.Background()

	order := &entity.TicketOrder{
		EventName:  "Showcase",
		EventDate:  "2025-09-21",
		EventVenue: "Royal Albert Hall",
		UserName:   "Ada",
		UserEmail:  "member@example.com",
	}
	require.NoError(t, svc.CreateOrder(ctx, order))

	req, err := svc.TicketForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.EventName, req.EventName)
	assert.Equal(t, order.EventDate, req.EventDate)
	assert.Equal(t, order.EventVenue, req.EventVenue)
	assert.Equal(t, order.UserName, req.UserName)
	assert.Equal(t, order.ID, req.OrderID)
}

func TestTicketForOrder_NotFound(t *testing.T) {
	svc, _, _ := newTicketFixture(t)

	_, err := svc.TicketForOrder(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestEmailOrderTicket_SendsToPurchaser(t *testing.T) {
	svc, emails, _ := newTicketFixture(t)
	ctx := context.Background()

	order := &entity.TicketOrder{
		EventName: "Showcase",
		UserEmail: "member@example.com",
	}
	require.NoError(t, svc.CreateOrder(ctx, order))

	require.NoError(t, svc.EmailOrderTicket(ctx, order.ID))
	assert.Equal(t, "member@example.com", emails.lastTo)
	assert.Equal(t, 1, emails.sentTickets)
}
