package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nexivent/nexivent-api/internal/domain/entity"
	apperrors "github.com/nexivent/nexivent-api/internal/pkg/errors"
)

type TicketOrderRepo struct {
	db *gorm.DB
}

func NewTicketOrderRepo(db *gorm.DB) *TicketOrderRepo {
	return &TicketOrderRepo{db: db}
}

func (r *TicketOrderRepo) Create(order *entity.TicketOrder) error {
	if err := r.db.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create ticket order: %w", err)
	}
	return nil
}

func (r *TicketOrderRepo) GetByID(id string) (*entity.TicketOrder, error) {
	var order entity.TicketOrder
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket order: %w", err)
	}
	return &order, nil
}
