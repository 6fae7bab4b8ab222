package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	RefreshTotal.WithLabelValues("created").Inc()
	ReportFailures.Inc()
	UpstreamDuration.WithLabelValues("countries", "ok").Observe(0.2)

	require.Equal(t, 1, testutil.CollectAndCount(RefreshTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(ReportFailures))

	// registering twice on the same registry is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}
