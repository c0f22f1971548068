package entity

import "time"

// TicketOrder records a completed purchase. Payment and checkout happen in an
// external backend; this row only carries what the ticket document needs.
type TicketOrder struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	EventName  string    `gorm:"size:200;not null" json:"event_name"`
	EventDate  string    `gorm:"size:100" json:"event_date"`
	EventVenue string    `gorm:"size:200" json:"event_venue"`
	UserName   string    `gorm:"size:100" json:"user_name"`
	UserEmail  string    `gorm:"size:100;not null;index" json:"user_email"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TicketOrder) TableName() string {
	return "ticket_orders"
}
