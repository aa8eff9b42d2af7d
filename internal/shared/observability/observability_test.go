package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingRequiresEndpoint(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{ServiceName: "impactgraph"})
	assert.Error(t, err)
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		ServiceName:  "impactgraph",
		Version:      "test",
		OTLPEndpoint: "127.0.0.1:4317",
		Insecure:     true,
	})
	require.NoError(t, err)

	_, span := Tracer.Start(context.Background(), "test.span")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestGaugesAndCounters(t *testing.T) {
	GraphNodes.Set(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(GraphNodes))

	before := testutil.ToFloat64(WatcherDroppedTotal)
	WatcherDroppedTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(WatcherDroppedTotal))
}
