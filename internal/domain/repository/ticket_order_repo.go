package repository

import "github.com/nexivent/nexivent-api/internal/domain/entity"

// TicketOrderRepository persists completed ticket orders so members can
// re-download or re-send their tickets later.
type TicketOrderRepository interface {
	Create(order *entity.TicketOrder) error
	GetByID(id string) (*entity.TicketOrder, error)
}
