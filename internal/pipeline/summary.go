package pipeline

// Prediction is the classifier output for the window ending at FrameIndex.
type Prediction struct {
	Probability float64 `json:"probability"`
	FrameIndex  int     `json:"frameIndex"`
}

// Summary counts predictions on each side of the threshold.
type Summary struct {
	ViolentFrames    int `json:"violentFrames"`
	NonViolentFrames int `json:"nonViolentFrames"`
}

// Total returns the number of predictions summarized.
func (s Summary) Total() int {
	return s.ViolentFrames + s.NonViolentFrames
}

// Summarize counts predictions strictly above threshold as violent. An empty
// slice means no window ever filled and yields ErrInsufficientFrames.
func Summarize(predictions []Prediction, threshold float64) (Summary, error) {
	if len(predictions) == 0 {
		return Summary{}, ErrInsufficientFrames
	}

	var s Summary
	for _, p := range predictions {
		if p.Probability > threshold {
			s.ViolentFrames++
		}
	}
	s.NonViolentFrames = len(predictions) - s.ViolentFrames
	return s, nil
}
