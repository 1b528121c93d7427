package postgres_test

import (
	"context"
	"testing"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestOrderRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	order := &domain.Order{
		OrderNo:            "RO20260828000042",
		RenterID:           11,
		MerchantID:         3,
		StartDate:          day(1),
		EndDate:            day(3),
		TotalAmountCents:   6000,
		DepositAmountCents: 10000,
		Status:             domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{ItemID: 7, Quantity: 2, PricePerDayCents: 1000, DepositCents: 5000, LineTotalCents: 6000},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(order.OrderNo, order.RenterID, order.MerchantID, order.StartDate, order.EndDate,
			order.TotalAmountCents, order.DepositAmountCents, order.Status, order.Remark,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("INSERT INTO order_lines").
		WithArgs(int64(5), int64(7), int32(2), int64(1000), int64(5000), int64(6000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(13))
	mock.ExpectCommit()

	err = repo.Create(ctx, order)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), order.ID)
	assert.Equal(t, int64(13), order.Lines[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	t.Run("PreconditionHolds", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs(domain.OrderStatusPaid, sqlmock.AnyArg(), int64(5), domain.OrderStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.TransitionStatus(ctx, 5, domain.OrderStatusConfirmed, domain.OrderStatusPaid)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("PreconditionLost", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs(domain.OrderStatusPaid, sqlmock.AnyArg(), int64(5), domain.OrderStatusConfirmed).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.TransitionStatus(ctx, 5, domain.OrderStatusConfirmed, domain.OrderStatusPaid)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestOrderRepository_ConfirmIfAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	order := &domain.Order{
		ID:        5,
		StartDate: day(1),
		EndDate:   day(3),
		Status:    domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{ItemID: 9, Quantity: 1},
			{ItemID: 7, Quantity: 2},
		},
	}

	t.Run("ConfirmsWhenFree", func(t *testing.T) {
		mock.ExpectBegin()
		// Advisory locks taken in ascending item-id order.
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(7), order.ID, sqlmock.AnyArg(), order.StartDate, order.EndDate).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(9), order.ID, sqlmock.AnyArg(), order.StartDate, order.EndDate).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs(domain.OrderStatusConfirmed, sqlmock.AnyArg(), order.ID, domain.OrderStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, conflictID, err := repo.ConfirmIfAvailable(ctx, order)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, conflictID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConflictReportsItem", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(7), order.ID, sqlmock.AnyArg(), order.StartDate, order.EndDate).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		ok, conflictID, err := repo.ConfirmIfAvailable(ctx, order)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(7), conflictID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StatusRaceLost", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(7), order.ID, sqlmock.AnyArg(), order.StartDate, order.EndDate).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(9), order.ID, sqlmock.AnyArg(), order.StartDate, order.EndDate).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("UPDATE orders SET status").
			WithArgs(domain.OrderStatusConfirmed, sqlmock.AnyArg(), order.ID, domain.OrderStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		ok, conflictID, err := repo.ConfirmIfAvailable(ctx, order)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, conflictID)
	})
}

func TestOrderRepository_HasOverlapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7), int64(0), sqlmock.AnyArg(), day(1), day(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.HasOverlapping(ctx, 7, day(1), day(3), domain.NonTerminalOrderStatuses, 0)
	assert.NoError(t, err)
	assert.True(t, conflict)
}

func TestOrderRepository_AppendRemark(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	t.Run("Appends", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders SET remark").
			WithArgs("cancelled: changed plans", sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.AppendRemark(ctx, 5, "cancelled: changed plans"))
	})

	t.Run("MissingOrder", func(t *testing.T) {
		mock.ExpectExec("UPDATE orders SET remark").
			WithArgs("note", sqlmock.AnyArg(), int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.AppendRemark(ctx, 99, "note"), domain.ErrNotFound)
	})
}

func TestOrderRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()

	t.Run("DeletesDeletableOrder", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM orders").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 5))
	})

	t.Run("GuardRefusesActiveOrder", func(t *testing.T) {
		// The status predicate filters out the row; zero rows means not found
		// from the caller's perspective.
		mock.ExpectExec("DELETE FROM orders").
			WithArgs(int64(6)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 6), domain.ErrNotFound)
	})
}

func TestOrderRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	orderRows := sqlmock.NewRows([]string{"id", "order_no", "renter_id", "merchant_id", "start_date", "end_date",
		"total_amount_cents", "deposit_amount_cents", "status", "actual_return_date", "remark", "created_on", "updated_on"}).
		AddRow(5, "RO20260828000042", 11, 3, day(1), day(3), 6000, 10000, "CONFIRMED", nil, "", now, now)
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(orderRows)

	lineRows := sqlmock.NewRows([]string{"id", "order_id", "item_id", "quantity", "price_per_day_cents", "deposit_cents", "line_total_cents"}).
		AddRow(13, 5, 7, 2, 1000, 5000, 6000)
	mock.ExpectQuery("SELECT (.+) FROM order_lines WHERE order_id").
		WithArgs(int64(5)).
		WillReturnRows(lineRows)

	order, err := repo.GetByID(ctx, 5)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Len(t, order.Lines, 1)
	assert.Equal(t, int64(7), order.Lines[0].ItemID)
}
