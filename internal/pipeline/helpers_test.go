package pipeline

import (
	"context"
	"io"

	"gocv.io/x/gocv"
)

// fakeSource yields count solid frames; frame i is filled with shade(i) in every channel.
type fakeSource struct {
	count    int
	reported int
	rows     int
	cols     int
	shade    func(i int) float64
	next     int
}

func newFakeSource(count int) *fakeSource {
	return &fakeSource{
		count:    count,
		reported: count,
		rows:     240,
		cols:     320,
		shade:    func(i int) float64 { return float64(i % 256) },
	}
}

func (s *fakeSource) Next() (gocv.Mat, error) {
	if s.next >= s.count {
		return gocv.Mat{}, io.EOF
	}
	v := s.shade(s.next)
	s.next++
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), s.rows, s.cols, gocv.MatTypeCV8UC3), nil
}

func (s *fakeSource) TotalFrameCount() int { return s.reported }
func (s *fakeSource) Position() int        { return s.next - 1 }

// recordingSink keeps a clone of every written frame.
type recordingSink struct {
	frames []gocv.Mat
}

func (s *recordingSink) Write(img gocv.Mat) error {
	s.frames = append(s.frames, img.Clone())
	return nil
}

func (s *recordingSink) Close() {
	for i := range s.frames {
		s.frames[i].Close()
	}
}

// constantClassifier always answers p.
func constantClassifier(p float64) Classifier {
	return ClassifierFunc(func(_ context.Context, _ Batch) (float64, error) {
		return p, nil
	})
}

// countColor counts pixels in the label band whose BGR value is close to c.
func countColor(img gocv.Mat, b, g, r uint8) int {
	n := 0
	rows := img.Rows()
	if rows > 45 {
		rows = 45
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < img.Cols(); x++ {
			px := img.GetVecbAt(y, x)
			if near(px[0], b) && near(px[1], g) && near(px[2], r) {
				n++
			}
		}
	}
	return n
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d > -40 && d < 40
}
