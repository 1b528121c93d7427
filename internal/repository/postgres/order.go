package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"rentease-backend/internal/domain"
	"rentease-backend/internal/repository"

	"github.com/lib/pq"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_no, renter_id, merchant_id, start_date, end_date,
	total_amount_cents, deposit_amount_cents, status, actual_return_date, remark, created_on, updated_on`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	query := `INSERT INTO orders (order_no, renter_id, merchant_id, start_date, end_date,
	          total_amount_cents, deposit_amount_cents, status, remark, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err = tx.QueryRowContext(ctx, query,
		order.OrderNo, order.RenterID, order.MerchantID, order.StartDate, order.EndDate,
		order.TotalAmountCents, order.DepositAmountCents, order.Status, order.Remark, now, now,
	).Scan(&order.ID)
	if err != nil {
		return err
	}

	lineQuery := `INSERT INTO order_lines (order_id, item_id, quantity, price_per_day_cents, deposit_cents, line_total_cents)
	              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRowContext(ctx, lineQuery,
			line.OrderID, line.ItemID, line.Quantity, line.PricePerDayCents, line.DepositCents, line.LineTotalCents,
		).Scan(&line.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	return r.getOne(ctx, "order_no = $1", orderNo)
}

func (r *orderRepository) getOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	order := &domain.Order{}
	query := fmt.Sprintf("SELECT %s FROM orders WHERE %s", orderColumns, where)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&order.ID, &order.OrderNo, &order.RenterID, &order.MerchantID,
		&order.StartDate, &order.EndDate, &order.TotalAmountCents, &order.DepositAmountCents,
		&order.Status, &order.ActualReturnDate, &order.Remark, &order.CreatedOn, &order.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	query := `SELECT id, order_id, item_id, quantity, price_per_day_cents, deposit_cents, line_total_cents
	          FROM order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Quantity,
			&line.PricePerDayCents, &line.DepositCents, &line.LineTotalCents); err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

func (r *orderRepository) TransitionStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_on = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *orderRepository) ConfirmIfAvailable(ctx context.Context, order *domain.Order) (bool, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	// Serialize concurrent confirms touching the same items. Locks are
	// transaction scoped and taken in item-id order to avoid deadlocks.
	itemIDs := make([]int64, 0, len(order.Lines))
	for _, line := range order.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}
	slices.Sort(itemIDs)
	for _, itemID := range itemIDs {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, itemID); err != nil {
			return false, 0, err
		}
	}

	blocking := statusStrings(domain.SlotHoldingOrderStatuses)
	overlapQuery := `SELECT EXISTS (
	        SELECT 1 FROM order_lines ol
	        JOIN orders o ON o.id = ol.order_id
	        WHERE ol.item_id = $1 AND o.id <> $2 AND o.status = ANY($3)
	          AND o.start_date <= $5 AND o.end_date >= $4)`
	for _, itemID := range itemIDs {
		var conflict bool
		err := tx.QueryRowContext(ctx, overlapQuery,
			itemID, order.ID, pq.Array(blocking), order.StartDate, order.EndDate).Scan(&conflict)
		if err != nil {
			return false, 0, err
		}
		if conflict {
			return false, itemID, nil
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_on = $2 WHERE id = $3 AND status = $4`,
		domain.OrderStatusConfirmed, time.Now(), order.ID, domain.OrderStatusPending)
	if err != nil {
		return false, 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	if affected != 1 {
		return false, 0, nil
	}
	return true, 0, tx.Commit()
}

func (r *orderRepository) HasOverlapping(ctx context.Context, itemID int64, start, end time.Time, blocking []domain.OrderStatus, excludeOrderID int64) (bool, error) {
	query := `SELECT EXISTS (
	        SELECT 1 FROM order_lines ol
	        JOIN orders o ON o.id = ol.order_id
	        WHERE ol.item_id = $1 AND o.id <> $2 AND o.status = ANY($3)
	          AND o.start_date <= $5 AND o.end_date >= $4)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query,
		itemID, excludeOrderID, pq.Array(statusStrings(blocking)), start, end).Scan(&exists)
	return exists, err
}

// AppendRemark adds to the remark trail; earlier entries are never overwritten.
func (r *orderRepository) AppendRemark(ctx context.Context, id int64, note string) error {
	query := `UPDATE orders SET remark = CASE WHEN remark = '' THEN $1 ELSE remark || E'\n' || $1 END,
	          updated_on = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, note, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SetActualReturnDate(ctx context.Context, id int64, returned time.Time) error {
	query := `UPDATE orders SET actual_return_date = $1, updated_on = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, returned, time.Now(), id)
	return err
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	// Deletion is only permitted while PENDING or CANCELLED; the service
	// checks the state, the predicate here is the last line of defense.
	query := `DELETE FROM orders WHERE id = $1 AND status IN ('PENDING', 'CANCELLED')`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + orderColumns + ` FROM orders WHERE renter_id = $1`
	args := []interface{}{renterID}
	argIdx := 2
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrderNo, &o.RenterID, &o.MerchantID,
			&o.StartDate, &o.EndDate, &o.TotalAmountCents, &o.DepositAmountCents,
			&o.Status, &o.ActualReturnDate, &o.Remark, &o.CreatedOn, &o.UpdatedOn); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, count, rows.Err()
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
