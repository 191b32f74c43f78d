package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	t.Run("perfect ranking", func(t *testing.T) {
		auc, err := AUC([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, auc, 1e-12)
	})

	t.Run("inverted ranking", func(t *testing.T) {
		auc, err := AUC([]float64{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, auc, 1e-12)
	})

	t.Run("ties", func(t *testing.T) {
		auc, err := AUC([]float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, auc, 1e-12)
	})

	t.Run("single class", func(t *testing.T) {
		auc, err := AUC([]float64{1, 1, 1}, []float64{0.1, 0.2, 0.3})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, auc, 1e-12)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := AUC([]float64{0, 1}, []float64{0.5})
		assert.Error(t, err)
	})

	t.Run("non-binary label", func(t *testing.T) {
		_, err := AUC([]float64{0, 2}, []float64{0.1, 0.9})
		assert.Error(t, err)
	})
}

func TestLogLoss(t *testing.T) {
	t.Run("confident correct predictions", func(t *testing.T) {
		ll, err := LogLoss([]float64{0, 1}, []float64{0.01, 0.99})
		require.NoError(t, err)
		assert.Less(t, ll, 0.05)
	})

	t.Run("clamps extreme probabilities", func(t *testing.T) {
		ll, err := LogLoss([]float64{1}, []float64{0})
		require.NoError(t, err)
		assert.False(t, math.IsInf(ll, 0))
	})
}

func TestGini(t *testing.T) {
	g, err := Gini([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g, 1e-12)
}
