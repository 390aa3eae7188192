package repositories

import (
	"context"
	"database/sql"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"errors"
	"fmt"
	"time"
)

// SQL-backed implementation of the OrderRepository port.
// Driver selects the placeholder dialect ("sqlite" or "pgx").
type SQLOrderRepository struct {
	DB     *sql.DB
	Driver string
}

func NewSQLOrderRepository(conn *sql.DB, driver string) *SQLOrderRepository {
	return &SQLOrderRepository{DB: conn, Driver: driver}
}

// Return all orders stored in the database.
func (s *SQLOrderRepository) ListOrders(ctx context.Context) (_ []*domain.Order, err error) {
	defer obs.Time(ctx, "orders.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql order repository: DB is nil")
	}

	query := `
	SELECT
		order_id,
		customer,
		address,
		priority,
		status,
		lat,
		lng,
		traffic_factor,
		time_window_end,
		delivered_at
	FROM orders
	ORDER BY order_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		var o domain.Order
		var status string
		var deliveredAt sql.NullString
		err := rows.Scan(
			&o.OrderID,
			&o.Customer,
			&o.Address,
			&o.Priority,
			&status,
			&o.Location.Lat,
			&o.Location.Lng,
			&o.TrafficFactor,
			&o.TimeWindowEnd,
			&deliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}
		o.Status = domain.OrderStatus(status)

		if deliveredAt.Valid && deliveredAt.String != "" {
			at, err := time.Parse(time.RFC3339Nano, deliveredAt.String)
			if err != nil {
				return nil, fmt.Errorf("list orders: order %s: parse delivered_at: %w", o.OrderID, err)
			}
			o.DeliveredAt = &at
		}
		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}

// Insert or replace orders in a single transaction.
func (s *SQLOrderRepository) SaveOrders(ctx context.Context, orders []*domain.Order) (err error) {
	defer obs.Time(ctx, "orders.Save")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	if len(orders) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := db.Rebind(s.Driver, `
	INSERT INTO orders (
		order_id,
		customer,
		address,
		priority,
		status,
		lat,
		lng,
		traffic_factor,
		time_window_end,
		delivered_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (order_id) DO UPDATE
	SET customer = EXCLUDED.customer,
		address = EXCLUDED.address,
		priority = EXCLUDED.priority,
		status = EXCLUDED.status,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		traffic_factor = EXCLUDED.traffic_factor,
		time_window_end = EXCLUDED.time_window_end,
		delivered_at = EXCLUDED.delivered_at;
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("save orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return errors.New("save orders: order id must not be empty")
		}

		var deliveredAt sql.NullString
		if o.DeliveredAt != nil {
			deliveredAt = sql.NullString{String: o.DeliveredAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			o.OrderID,
			o.Customer,
			o.Address,
			o.Priority,
			string(o.Status),
			o.Location.Lat,
			o.Location.Lng,
			o.TrafficFactor,
			o.TimeWindowEnd,
			deliveredAt,
		)
		if err != nil {
			return fmt.Errorf("save orders: insert order_id=%s: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save orders: commit tx: %w", err)
	}

	return nil
}

// Set an order's status to Delivered and stamp the delivery time.
func (s *SQLOrderRepository) MarkDelivered(ctx context.Context, orderID string, at time.Time) (err error) {
	defer obs.Time(ctx, "orders.MarkDelivered")(&err)

	if s.DB == nil {
		return errors.New("sql order repository: DB is nil")
	}

	query := db.Rebind(s.Driver, `
	UPDATE orders
	SET status = ?, delivered_at = ?
	WHERE order_id = ?;
	`)
	res, err := s.DB.ExecContext(ctx, query, string(domain.OrderDelivered), at.UTC().Format(time.RFC3339Nano), orderID)
	if err != nil {
		return fmt.Errorf("mark delivered: update order_id=%s: %w", orderID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark delivered: order_id=%s: %w", orderID, ports.ErrOrderNotFound)
	}

	return nil
}
