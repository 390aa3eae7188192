package obs

import (
	"bytes"
	"context"
	"delivery-route-optimizer/internal/platform/logger"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}

func TestTimeLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	prev := log
	SetLogger(logger.NewWithWriter(&buf, "obs"))
	t.Cleanup(func() { SetLogger(prev) })

	ctx := WithRequestID(context.Background(), "req-9")
	err := errors.New("boom")
	Time(ctx, "orders.List")(&err)

	out := buf.String()
	assert.Contains(t, out, `"op":"orders.List"`)
	assert.Contains(t, out, `"req_id":"req-9"`)
	assert.Contains(t, out, `"err":"boom"`)

	buf.Reset()
	var ok error
	Time(ctx, "orders.List")(&ok)
	assert.NotContains(t, buf.String(), "operation failed")
}
