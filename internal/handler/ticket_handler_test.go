package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexivent/nexivent-api/internal/service"
	"github.com/nexivent/nexivent-api/internal/ticketpdf"
)

func newTicketHandlerFixture(t *testing.T) (*TicketHandler, *capturingEmailService) {
	t.Helper()
	emails := &capturingEmailService{}
	svc, err := service.NewTicketService(ticketpdf.NewGenerator(), emails, nil)
	require.NoError(t, err)
	return NewTicketHandler(svc), emails
}

func TestDownloadTicket_StreamsPDF(t *testing.T) {
	handler, _ := newTicketHandlerFixture(t)

	c, w := newTestGinContext("GET", "/api/tickets/download?event=Showcase&date=2025-09-21&venue=Royal+Albert+Hall", nil)
	handler.DownloadTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Showcase.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestDownloadTicket_MissingEventName(t *testing.T) {
	handler, _ := newTicketHandlerFixture(t)

	c, w := newTestGinContext("GET", "/api/tickets/download?date=2025-09-21", nil)
	handler.DownloadTicket(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "event name is required", resp["error"])
}

func TestEmailTicket_ValidationErrors(t *testing.T) {
	handler, _ := newTicketHandlerFixture(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty body", body: nil},
		{name: "missing email", body: map[string]string{"event_name": "Showcase"}},
		{name: "missing event name", body: map[string]string{"email": "m@example.com"}},
		{name: "invalid email", body: map[string]string{"email": "nope", "event_name": "Showcase"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext("POST", "/api/tickets/email", tt.body)
			handler.EmailTicket(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Equal(t, "Invalid request data", resp["error"])
		})
	}
}

func TestEmailTicket_Sends(t *testing.T) {
	handler, _ := newTicketHandlerFixture(t)

	c, w := newTestGinContext("POST", "/api/tickets/email", map[string]string{
		"email":       "member@example.com",
		"event_name":  "Showcase",
		"event_date":  "2025-09-21",
		"event_venue": "Royal Albert Hall",
		"user_name":   "Ada",
	})
	handler.EmailTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "ticket sent", resp["message"])
}

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  string
	}{
		{name: "plain", event: "Showcase", want: "Showcase.pdf"},
		{name: "spaces become dashes", event: "Summer Gala", want: "Summer-Gala.pdf"},
		{name: "specials are stripped", event: `Night/Show:"2025"`, want: "NightShow2025.pdf"},
		{name: "empty falls back", event: "  ", want: "ticket.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, downloadFilename(tt.event))
		})
	}
}
