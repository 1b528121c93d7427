package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, order_id, payment_no, amount_cents, method, type, status,
	provider_txn_id, refund_of_id, created_on, updated_on`

func (r *paymentRepository) CreateForOrder(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock the order row first: concurrent creations for the same order
	// serialize on it, so the existence check below cannot race a concurrent
	// insert into two live PENDING payments.
	var orderID int64
	lockQuery := `SELECT id FROM orders WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQuery, payment.OrderID).Scan(&orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	var exists bool
	existsQuery := `SELECT EXISTS (
	        SELECT 1 FROM payments WHERE order_id = $1 AND status = 'PENDING' AND type <> 'REFUND')`
	if err := tx.QueryRowContext(ctx, existsQuery, payment.OrderID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return domain.ErrLivePaymentExists
	}

	now := time.Now()
	insertQuery := `INSERT INTO payments (order_id, payment_no, amount_cents, method, type, status, refund_of_id, created_on, updated_on)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err = tx.QueryRowContext(ctx, insertQuery,
		payment.OrderID, payment.PaymentNo, payment.AmountCents, payment.Method,
		payment.Type, payment.Status, payment.RefundOfID, now, now,
	).Scan(&payment.ID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *paymentRepository) CreateRefund(ctx context.Context, payment *domain.Payment) error {
	now := time.Now()
	query := `INSERT INTO payments (order_id, payment_no, amount_cents, method, type, status, refund_of_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		payment.OrderID, payment.PaymentNo, payment.AmountCents, payment.Method,
		payment.Type, payment.Status, payment.RefundOfID, now, now,
	).Scan(&payment.ID)
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *paymentRepository) GetByPaymentNo(ctx context.Context, paymentNo string) (*domain.Payment, error) {
	return r.getOne(ctx, "payment_no = $1", paymentNo)
}

func (r *paymentRepository) getOne(ctx context.Context, where string, arg any) (*domain.Payment, error) {
	p := &domain.Payment{}
	query := fmt.Sprintf("SELECT %s FROM payments WHERE %s", paymentColumns, where)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.OrderID, &p.PaymentNo, &p.AmountCents, &p.Method, &p.Type,
		&p.Status, &p.ProviderTxnID, &p.RefundOfID, &p.CreatedOn, &p.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, id int64, from, to domain.PaymentStatus, providerTxnID *string) (bool, error) {
	query := `UPDATE payments SET status = $1, provider_txn_id = COALESCE($2, provider_txn_id), updated_on = $3
	          WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, to, providerTxnID, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *paymentRepository) AppendRecord(ctx context.Context, record *domain.PaymentRecord) error {
	query := `INSERT INTO payment_records (payment_id, status, provider_response, error_message, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		record.PaymentID, record.Status, record.ProviderResponse, record.ErrorMessage, time.Now(),
	).Scan(&record.ID)
}

func (r *paymentRepository) ListRecords(ctx context.Context, paymentID int64) ([]domain.PaymentRecord, error) {
	query := `SELECT id, payment_id, status, provider_response, error_message, created_on
	          FROM payment_records WHERE payment_id = $1 ORDER BY created_on, id`
	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		var rec domain.PaymentRecord
		if err := rows.Scan(&rec.ID, &rec.PaymentID, &rec.Status,
			&rec.ProviderResponse, &rec.ErrorMessage, &rec.CreatedOn); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *paymentRepository) SumSuccessfulRefunds(ctx context.Context, originalPaymentID int64) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM payments
	          WHERE refund_of_id = $1 AND type = 'REFUND' AND status = 'SUCCESS'`
	err := r.db.QueryRowContext(ctx, query, originalPaymentID).Scan(&sum)
	return sum, err
}

func (r *paymentRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE status = 'PENDING' AND type <> 'REFUND' AND created_on < $1
	          ORDER BY created_on LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.PaymentNo, &p.AmountCents, &p.Method,
			&p.Type, &p.Status, &p.ProviderTxnID, &p.RefundOfID, &p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
