package streets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is a non-2xx reply from an OSRM server. OSRM reports failures as
// {"code": "...", "message": "..."}; other bodies end up in Message verbatim.
type StatusError struct {
	HTTPStatus int
	Code       string
	Message    string
	// RetryAfter is the server's Retry-After hint, if any.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("osrm http %d %s: %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("osrm http %d: %s", e.HTTPStatus, e.Message)
}

// Unwrap maps OSRM's "nothing routable" codes to ErrNoRoute.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case "NoRoute", "NoTable", "NoSegment":
		return ErrNoRoute
	}
	return nil
}

func readStatusError(resp *http.Response) *StatusError {
	se := &StatusError{HTTPStatus: resp.StatusCode}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &body) == nil && body.Code != "" {
		se.Code, se.Message = body.Code, body.Message
	} else {
		se.Message = strings.TrimSpace(string(b))
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return se
}

// RetryPolicy controls how transient OSRM failures are retried. The wait
// starts at Backoff and doubles per retry, bounded by MaxBackoff (0 = no bound).
// A longer Retry-After from the server replaces the computed wait.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, Backoff: 200 * time.Millisecond, MaxBackoff: 5 * time.Second}
}

// Retryable reports whether err is worth another attempt: rate limiting,
// gateway and server failures, and network errors.
func (p RetryPolicy) Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.HTTPStatus {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Wait returns the pause after failed attempt number attempt (1-based).
func (p RetryPolicy) Wait(attempt int, err error) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt && (p.MaxBackoff == 0 || d < p.MaxBackoff); i++ {
		d *= 2
	}

	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > d {
		d = se.RetryAfter
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// getJSON fetches endpoint and decodes the body into v, retrying per o.retry.
func (o *OSRMRouter) getJSON(ctx context.Context, endpoint string, v any) error {
	for attempt := 1; ; attempt++ {
		err := o.fetchJSON(ctx, endpoint, v)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt >= o.retry.Attempts || !o.retry.Retryable(err) {
			return err
		}

		wait := o.retry.Wait(attempt, err)
		o.log.Debugf("osrm: attempt %d failed, retrying in %s: %v", attempt, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (o *OSRMRouter) fetchJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
