package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromRecordsObservations(t *testing.T) {
	p := NewProm()

	p.SetMetricValue("clevcvx_total_supply", 1234.5)
	p.IncMetricFailure("cvx_price_usd", "price_feed_unavailable")
	p.IncMetricFailure("cvx_price_usd", "price_feed_unavailable")
	p.IncContractCall("totalSupply", "ok")
	p.SetSnapshotBlock(19000000)

	assert.Equal(t, 1234.5, testutil.ToFloat64(p.MetricValue.WithLabelValues("clevcvx_total_supply")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.MetricFailures.WithLabelValues("cvx_price_usd", "price_feed_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ContractCalls.WithLabelValues("totalSupply", "ok")))
	assert.Equal(t, 19000000.0, testutil.ToFloat64(p.SnapshotBlock))
}

func TestPromHandlerExposesRegistry(t *testing.T) {
	p := NewProm()
	p.SetMetricValue("cvx_locked", 42)
	p.ObserveSnapshot(0.25)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cleverdash_metric_value{key="cvx_locked"} 42`)
	assert.Contains(t, string(body), "cleverdash_snapshot_duration_seconds_count 1")
}

func TestNoopSatisfiesProvider(t *testing.T) {
	var p Provider = Noop{}
	p.SetMetricValue("x", 1)
	p.IncMetricFailure("x", "unknown")
	p.IncContractCall("m", "ok")
	p.SetSnapshotBlock(1)
	p.ObserveSnapshot(1)
}
