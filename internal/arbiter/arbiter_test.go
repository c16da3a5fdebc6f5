package arbiter

import (
	"math"
	"testing"

	apperrors "github.com/supporthub/backend-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideDefaultThreshold(t *testing.T) {
	a := New(nil)

	cases := []struct {
		confidence float64
		want       Disposition
	}{
		{0.65, DispositionAutoSent}, // 等于阈值按达标处理
		{0.649999, DispositionPendingReview},
		{1.0, DispositionAutoSent},
		{0.0, DispositionPendingReview},
		{0.85, DispositionAutoSent},
		{0.3, DispositionPendingReview},
	}

	for _, tc := range cases {
		got, err := a.Decide(tc.confidence)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "confidence=%v", tc.confidence)
	}
}

func TestDecideIsPure(t *testing.T) {
	a := New(nil)

	first, err := a.Decide(0.5)
	require.NoError(t, err)
	second, err := a.Decide(0.5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecideInvalidConfidence(t *testing.T) {
	a := New(nil)

	// NaN的任何比较都是false，必须单独拦截而不是落进pending_review
	for _, confidence := range []float64{1.5, -0.01, 2.0, -1.0, math.NaN()} {
		_, err := a.Decide(confidence)
		require.Error(t, err, "confidence=%v", confidence)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidConfidence))
	}
}

func TestDecideCustomThreshold(t *testing.T) {
	threshold := 0.8
	a := New(func() float64 { return threshold })

	got, err := a.Decide(0.75)
	require.NoError(t, err)
	assert.Equal(t, DispositionPendingReview, got)

	// 阈值热更新后立即生效
	threshold = 0.7
	got, err = a.Decide(0.75)
	require.NoError(t, err)
	assert.Equal(t, DispositionAutoSent, got)
}
