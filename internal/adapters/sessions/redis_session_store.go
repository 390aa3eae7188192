package sessions

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "routeopt:session:"

// Redis-backed SessionStore. Each session is a JSON string under
// Prefix+session id. A zero TTL keeps sessions until deleted.
type RedisSessionStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Client: client, Prefix: defaultKeyPrefix, TTL: ttl}
}

func (s *RedisSessionStore) key(id string) string {
	return s.Prefix + id
}

// SaveSession writes the session under WATCH so a concurrent writer between
// the version check and the SET aborts the transaction.
func (s *RedisSessionStore) SaveSession(ctx context.Context, session *domain.RouteSession) (err error) {
	defer obs.Time(ctx, "redis.sessions.Save")(&err)

	if s.Client == nil {
		return errors.New("redis session store: client is nil")
	}
	if session == nil || session.SessionID == "" {
		return errors.New("save session: session id must not be empty")
	}

	next := *session
	next.Version = session.Version + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("save session %s: encode: %w", session.SessionID, err)
	}

	key := s.key(session.SessionID)
	err = s.Client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if stored != session.Version {
			return ports.ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.TTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ports.ErrSessionConflict) || errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("save session %s at version %d: %w", session.SessionID, session.Version, ports.ErrSessionConflict)
	}
	if err != nil {
		return fmt.Errorf("save session %s: redis set: %w", session.SessionID, err)
	}

	session.Version = next.Version
	return nil
}

// storedVersion returns the version of the session under key, or 0 when absent.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	payload, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}

	var v struct{ Version int64 }
	if err := json.Unmarshal(payload, &v); err != nil {
		return 0, fmt.Errorf("decode stored session: %w", err)
	}
	return v.Version, nil
}

func (s *RedisSessionStore) LoadSession(ctx context.Context, id string) (_ *domain.RouteSession, err error) {
	defer obs.Time(ctx, "redis.sessions.Load")(&err)

	if s.Client == nil {
		return nil, errors.New("redis session store: client is nil")
	}

	payload, err := s.Client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load session %s: %w", id, ports.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: redis get: %w", id, err)
	}

	var session domain.RouteSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("load session %s: decode: %w", id, err)
	}

	return &session, nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "redis.sessions.Delete")(&err)

	if s.Client == nil {
		return errors.New("redis session store: client is nil")
	}

	if err := s.Client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: redis del: %w", id, err)
	}

	return nil
}
