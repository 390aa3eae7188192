package ports

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// Port: a boundary for reading and updating delivery orders.
type OrderRepository interface {
	// Retrieve all orders, ordered by id.
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// Insert or replace orders.
	SaveOrders(ctx context.Context, orders []*domain.Order) error
	// Mark an order delivered at the given time. Return ErrOrderNotFound for unknown ids.
	MarkDelivered(ctx context.Context, orderID string, at time.Time) error
}
