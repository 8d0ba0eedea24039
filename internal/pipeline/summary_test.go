package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predictionsOf(ps ...float64) []Prediction {
	out := make([]Prediction, len(ps))
	for i, p := range ps {
		out[i] = Prediction{Probability: p, FrameIndex: i + DefaultSequenceLength - 1}
	}
	return out
}

func TestSummarize_Counts(t *testing.T) {
	s, err := Summarize(predictionsOf(0.9, 0.1, 0.6, 0.4, 0.5), DefaultThreshold)
	require.NoError(t, err)

	assert.Equal(t, 2, s.ViolentFrames)
	assert.Equal(t, 3, s.NonViolentFrames)
	assert.Equal(t, 5, s.Total())
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(nil, DefaultThreshold)

	assert.ErrorIs(t, err, ErrInsufficientFrames)
	assert.Equal(t, Summary{}, s)
}

func TestSummarize_TotalsAlwaysMatch(t *testing.T) {
	cases := [][]float64{
		{0},
		{1},
		{0.5, 0.5, 0.5},
		{0.51, 0.49, 0.99, 0.01},
	}
	for _, ps := range cases {
		s, err := Summarize(predictionsOf(ps...), DefaultThreshold)
		require.NoError(t, err)
		assert.Equal(t, len(ps), s.ViolentFrames+s.NonViolentFrames, "predictions %v", ps)
	}
}
