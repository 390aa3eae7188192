package cache

import (
	"context"
	"database/sql"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"errors"
	"fmt"
	"strings"
)

// SQL-backed cache for origin->destination street distances.
// Keys are coordinate keys (domain.Coordinates.Key) normalized by the caller.
type SQLStreetCache struct {
	DB     *sql.DB
	Driver string
}

func NewSQLStreetCache(conn *sql.DB, driver string) *SQLStreetCache {
	return &SQLStreetCache{DB: conn, Driver: driver}
}

// Fetch cached distances for one origin and multiple destinations.
// Destinations without a cached entry are absent from the result.
func (s *SQLStreetCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "street.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("street cache: db is nil")
	}

	if origin == "" {
		return nil, errors.New("get street cache: origin must not be empty")
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(destinations))
	ph := make([]string, 0, len(destinations))
	for _, d := range destinations {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
		ph = append(ph, "?")
	}

	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	args := make([]any, 0, 1+len(uniq))
	args = append(args, origin)
	for _, d := range uniq {
		args = append(args, d)
	}

	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := db.Rebind(s.Driver, fmt.Sprintf(`
	SELECT
		destination,
		distance_meters,
		duration_seconds
	FROM street_cache
	WHERE origin = ?
		AND destination IN (%s);
	`, strings.Join(ph, ",")))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get street cache: query street_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(uniq))
	for rows.Next() {
		var dest string
		var meters, seconds int
		if err := rows.Scan(&dest, &meters, &seconds); err != nil {
			return nil, fmt.Errorf("get street cache: scan rows: %w", err)
		}
		out[dest] = ports.DistanceResult{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get street cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many distance results for a single origin.
func (s *SQLStreetCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "street.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("street cache: db is nil")
	}

	if origin == "" {
		return errors.New("insert street cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert street cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, db.Rebind(s.Driver, `
	INSERT INTO street_cache (origin, destination, distance_meters, duration_seconds)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
	`))
	if err != nil {
		return fmt.Errorf("insert street cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert street cache: empty destination key")
		}

		if _, err := stmt.ExecContext(ctx, origin, dest, r.DistanceMeters, r.DurationSeconds); err != nil {
			return fmt.Errorf("insert street cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert street cache commit: %w", err)
	}

	return nil
}
