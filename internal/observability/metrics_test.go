package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTestingIsIndependent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ReportsSubmitted.Inc()
	a.SignalsSubmitted.WithLabelValues("unsafe").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ReportsSubmitted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReportsSubmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.SignalsSubmitted.WithLabelValues("unsafe")))
}
