package postgres

import (
	"database/sql"

	"rentease-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.ItemRepository
	repository.OrderRepository
	repository.PaymentRepository
	repository.MerchantConfigRepository
	repository.SequenceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                       db,
		ItemRepository:           NewItemRepository(db),
		OrderRepository:          NewOrderRepository(db),
		PaymentRepository:        NewPaymentRepository(db),
		MerchantConfigRepository: NewMerchantConfigRepository(db),
		SequenceRepository:       NewSequenceRepository(db),
	}
}
