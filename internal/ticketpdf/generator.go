package ticketpdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrRender covers any document generation failure.
	ErrRender = errors.New("ticket render failed")

	// ErrMissingEventName is the one required-field violation; everything
	// else on the request is optional.
	ErrMissingEventName = fmt.Errorf("%w: event name is required", ErrRender)
)

// Page geometry. A4 portrait in points (595x842): downstream viewers and the
// print flow assume this exact page size.
const (
	topMargin   = 100.0
	lineAdvance = 28.0

	// qrPixels is the raster size handed to the QR encoder; qrSide is the
	// square the image occupies on the page.
	qrPixels = 200
	qrSide   = 150.0
	qrGap    = 40.0
)

// TicketRequest is the pure input value for one ticket document. It is not
// persisted; the generator holds no state between calls.
type TicketRequest struct {
	EventName  string
	EventDate  string
	EventVenue string
	UserName   string
	OrderID    string
}

// QRPayload builds the string encoded into the QR image. Scanners parse the
// delimiter format, so treat it as a contract.
func (r TicketRequest) QRPayload() string {
	orderID := strings.TrimSpace(r.OrderID)
	if orderID == "" {
		orderID = "N/A"
	}
	return fmt.Sprintf("NEXIVENT-TICKET|EVENT:%s|ORDER:%s", r.EventName, orderID)
}

// Generator renders single-page ticket documents.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Render produces the finished PDF bytes for a request. Layout is a fixed
// top-down cursor: title, event name, date, venue, optional holder block,
// then the QR image centered below the text. There is no wrapping or
// pagination; overly long values overlap the next block.
func (g *Generator) Render(req TicketRequest) ([]byte, error) {
	if strings.TrimSpace(req.EventName) == "" {
		return nil, ErrMissingEventName
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	y := topMargin
	line := func(style string, size float64, text string) {
		pdf.SetFont("Helvetica", style, size)
		x := (pageWidth - pdf.GetStringWidth(text)) / 2
		pdf.Text(x, y, text)
		y += lineAdvance
	}

	line("B", 22, "Nexivent Event Ticket")
	y += lineAdvance / 2
	line("B", 16, req.EventName)
	if req.EventDate != "" {
		line("", 12, "Date: "+req.EventDate)
	}
	if req.EventVenue != "" {
		line("", 12, "Venue: "+req.EventVenue)
	}
	if req.UserName != "" {
		line("", 11, "Issued to")
		line("B", 12, req.UserName)
	}

	png, err := qrcode.Encode(req.QRPayload(), qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: qr encode: %v", ErrRender, err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("ticket-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("ticket-qr", (pageWidth-qrSide)/2, y+qrGap, qrSide, qrSide, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
