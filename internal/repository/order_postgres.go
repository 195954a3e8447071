package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"meostore/internal/model"
)

const (
	orderColumns = `order_code, uid, amount, status, created_at, paid_at, tx_id, bank_description`

	uniqueViolation = "23505"
)

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) Insert(ctx context.Context, order *model.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (order_code, uid, amount, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		order.OrderCode, order.UID, order.Amount, string(order.Status), order.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert order %s: %w", order.OrderCode, model.ErrDuplicateKey)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) FindByCode(ctx context.Context, code string) (*model.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_code = $1`, code)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// CompareAndSetPaid transitions the first pending order whose code is in
// codes. Rows already paid are left untouched.
func (r *PostgresOrderRepository) CompareAndSetPaid(ctx context.Context, codes []string, p model.Payment) (*model.Order, error) {
	if len(codes) == 0 {
		return nil, model.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, paid_at = $2, tx_id = $3, bank_description = $4
		WHERE order_code = (
			SELECT order_code FROM orders
			WHERE order_code = ANY($5) AND status = $6
			ORDER BY array_position($5, order_code)
			LIMIT 1
			FOR UPDATE
		) AND status = $6
		RETURNING `+orderColumns,
		string(model.StatusPaid), p.PaidAt, p.TxID, p.Description, codes, string(model.StatusPending),
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o           model.Order
		status      string
		paidAt      sql.NullTime
		txID        sql.NullString
		description sql.NullString
	)
	if err := row.Scan(&o.OrderCode, &o.UID, &o.Amount, &status, &o.CreatedAt, &paidAt, &txID, &description); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	o.TxID = txID.String
	o.BankDescription = description.String
	return &o, nil
}
