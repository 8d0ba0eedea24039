package pipeline

// ProgressFunc receives the fraction of the input consumed so far, in [0,1].
// It is observational only; the pipeline behaves the same without one.
type ProgressFunc func(fraction float64)

// progressTracker reports consumed/max(total,1), clamped to 1 and never decreasing.
type progressTracker struct {
	fn       ProgressFunc
	total    int
	consumed int
	last     float64
}

func newProgressTracker(total int, fn ProgressFunc) *progressTracker {
	if total < 1 {
		total = 1
	}
	return &progressTracker{fn: fn, total: total}
}

func (t *progressTracker) advance() {
	t.consumed++
	fraction := float64(t.consumed) / float64(t.total)
	if fraction > 1 {
		fraction = 1
	}
	t.report(fraction)
}

// finish pins the final report to 1.0 when the container over-reported its length.
func (t *progressTracker) finish() {
	if t.last < 1 {
		t.report(1)
	}
}

func (t *progressTracker) report(fraction float64) {
	if fraction < t.last {
		fraction = t.last
	}
	t.last = fraction
	if t.fn != nil {
		t.fn(fraction)
	}
}
