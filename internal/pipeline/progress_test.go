package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(total, frames int) []float64 {
	var got []float64
	tr := newProgressTracker(total, func(f float64) { got = append(got, f) })
	for i := 0; i < frames; i++ {
		tr.advance()
	}
	tr.finish()
	return got
}

func assertMonotonicToOne(t *testing.T, got []float64) {
	t.Helper()
	if assert.NotEmpty(t, got) {
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i], got[i-1], "progress decreased at %d: %v", i, got)
		}
		for _, f := range got {
			assert.True(t, f >= 0 && f <= 1, "fraction %v out of range", f)
		}
		assert.Equal(t, 1.0, got[len(got)-1])
	}
}

func TestProgress_ExactTotal(t *testing.T) {
	got := collect(4, 4)

	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, got)
	assertMonotonicToOne(t, got)
}

func TestProgress_ZeroTotal(t *testing.T) {
	got := collect(0, 5)

	assert.Len(t, got, 5)
	assertMonotonicToOne(t, got)
}

func TestProgress_UnderReportedTotal(t *testing.T) {
	got := collect(3, 6)

	assertMonotonicToOne(t, got)
}

func TestProgress_OverReportedTotal(t *testing.T) {
	got := collect(10, 4)

	assert.Len(t, got, 5)
	assertMonotonicToOne(t, got)
}

func TestProgress_EmptyStream(t *testing.T) {
	got := collect(0, 0)

	assert.Equal(t, []float64{1}, got)
}

func TestProgress_NilCallback(t *testing.T) {
	tr := newProgressTracker(2, nil)
	assert.NotPanics(t, func() {
		tr.advance()
		tr.advance()
		tr.finish()
	})
}
