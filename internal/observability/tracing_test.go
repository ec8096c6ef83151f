package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "encore-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	span, ctx := NewSpan(context.Background(), "noop", attribute.String("k", "v"))
	assert.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.End()
}

func TestObserveStoreCall_RecordsOutcome(t *testing.T) {
	before := testutil.CollectAndCount(ObjectStoreLatency)

	ObserveStoreCall("head_test")(nil)
	ObserveStoreCall("head_test")(errors.New("timeout"))

	assert.Equal(t, before+2, testutil.CollectAndCount(ObjectStoreLatency))
}
