package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item := &domain.Item{}
	query := `SELECT id, merchant_id, name, status, price_per_day_cents, deposit_cents, created_on, updated_on
	          FROM items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.MerchantID, &item.Name, &item.Status,
		&item.PricePerDayCents, &item.DepositCents, &item.CreatedOn, &item.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}
