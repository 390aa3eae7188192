package repositories

import (
	"context"
	"database/sql"
	"delivery-route-optimizer/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the database schema. The DDL is valid for both SQLite and Postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		customer TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		traffic_factor DOUBLE PRECISION NOT NULL,
		time_window_end DOUBLE PRECISION NOT NULL,
		delivered_at TEXT
	);
	`

	createSessionsQuery := `
	CREATE TABLE IF NOT EXISTS route_sessions (
		session_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	`

	createStreetCacheQuery := `
	CREATE TABLE IF NOT EXISTS street_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		PRIMARY KEY (origin, destination)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_street_cache_destination_origin
	ON street_cache(destination, origin);
	`

	statements := []string{
		createOrdersQuery,
		createSessionsQuery,
		createStreetCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type OrderSeed struct {
	OrderID       string  `json:"order_id"`
	Customer      string  `json:"customer"`
	Address       string  `json:"address"`
	Priority      string  `json:"priority"`
	Status        string  `json:"status"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	TrafficFactor float64 `json:"traffic_factor"`
	TimeWindowEnd float64 `json:"time_window_end"`
}

// Populate the orders table from a JSON file. Returns the number of orders written.
func SeedFromJSON(ctx context.Context, repo *SQLOrderRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed orders: parse json: %w", err)
	}

	orders := make([]*domain.Order, 0, len(data))
	for i, item := range data {
		id := strings.TrimSpace(item.OrderID)
		if id == "" {
			return 0, fmt.Errorf("seed orders: item at index %d: order_id cannot be empty", i+1)
		}

		loc := domain.Coordinates{Lat: item.Lat, Lng: item.Lng}
		if !loc.Valid() {
			return 0, fmt.Errorf("seed orders: order %s: invalid location %v", id, loc)
		}

		status := domain.OrderStatus(strings.TrimSpace(item.Status))
		if status == "" {
			status = domain.OrderPending
		}

		factor := item.TrafficFactor
		if factor == 0 {
			factor = 1
		}
		if factor < 0 {
			return 0, fmt.Errorf("seed orders: order %s: traffic_factor must be positive", id)
		}

		orders = append(orders, &domain.Order{
			OrderID:       id,
			Customer:      strings.TrimSpace(item.Customer),
			Address:       strings.TrimSpace(item.Address),
			Priority:      strings.TrimSpace(item.Priority),
			Status:        status,
			Location:      loc,
			TrafficFactor: factor,
			TimeWindowEnd: item.TimeWindowEnd,
		})
	}

	if err := repo.SaveOrders(ctx, orders); err != nil {
		return 0, fmt.Errorf("seed orders: %w", err)
	}

	return len(orders), nil
}
