package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryCollectorsNonNil(t *testing.T) {
	r := NewRegistry()
	for _, c := range r.Collectors() {
		assert.NotNil(t, c)
	}
}

func TestMustRegisterAgainstOwnedRegistry(t *testing.T) {
	r := NewRegistry()
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { r.MustRegister(reg) })

	mf, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mf)
}

func TestOptimiserReversalsLabeled(t *testing.T) {
	r := NewRegistry()
	r.OptimiserReversals.WithLabelValues("overround").Inc()
	count := testutil.ToFloat64(r.OptimiserReversals.WithLabelValues("overround"))
	assert.Equal(t, 1.0, count)
}
