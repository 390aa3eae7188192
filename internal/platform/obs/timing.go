package obs

import (
	"context"
	"delivery-route-optimizer/internal/platform/logger"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

var log logger.Logger = logger.New("obs")

// SetLogger replaces the timing logger; intended for the composition root and tests.
func SetLogger(l logger.Logger) { log = l }

// WithRequestID stores a request id for timing and log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation. Use with a named error result:
//
//	defer obs.Time(ctx, "osrm.Route")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID := RequestID(ctx)

	return func(errp *error) {
		fields := map[string]any{
			"req_id": reqID,
			"op":     name,
			"dur_ms": time.Since(start).Milliseconds(),
		}

		if errp != nil && *errp != nil {
			fields["err"] = (*errp).Error()
			log.Infow("operation failed", fields)
			return
		}
		log.Debugw("operation completed", fields)
	}
}
