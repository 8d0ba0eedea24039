package pipeline

import (
	"context"
	"fmt"
)

// Batch is one normalized sequence laid out as (1, SequenceLength, Height, Width, Channels)
// in row-major order, values in [0,1], channels in decoder (BGR) order.
type Batch struct {
	Shape [5]int
	Data  []float32
}

// SequenceLength returns the number of frames in the batch.
func (b Batch) SequenceLength() int { return b.Shape[1] }

// FrameSize returns the number of values in one frame.
func (b Batch) FrameSize() int { return b.Shape[2] * b.Shape[3] * b.Shape[4] }

// Frame returns the values of the i-th frame of the sequence, oldest first.
func (b Batch) Frame(i int) []float32 {
	n := b.FrameSize()
	return b.Data[i*n : (i+1)*n]
}

// Classifier turns one frame sequence into the probability that it shows violence.
type Classifier interface {
	Classify(ctx context.Context, batch Batch) (float64, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, batch Batch) (float64, error)

func (f ClassifierFunc) Classify(ctx context.Context, batch Batch) (float64, error) {
	return f(ctx, batch)
}

// newBatch normalizes the window into a single-sequence batch. Every frame must
// already have the target size and an 8-bit element type.
func newBatch(w *Window, height, width int) (Batch, error) {
	first := w.At(0)
	channels := first.Channels()
	b := Batch{Shape: [5]int{1, w.Len(), height, width, channels}}
	b.Data = make([]float32, w.Len()*b.FrameSize())

	for i := 0; i < w.Len(); i++ {
		mat := w.At(i)
		if mat.Rows() != height || mat.Cols() != width || mat.Channels() != channels {
			return Batch{}, fmt.Errorf("frame %d has shape %dx%dx%d, want %dx%dx%d",
				w.IndexAt(i), mat.Rows(), mat.Cols(), mat.Channels(), height, width, channels)
		}
		pixels := mat.ToBytes()
		dst := b.Frame(i)
		if len(pixels) != len(dst) {
			// only 8-bit element types map one byte per value
			return Batch{}, fmt.Errorf("frame %d has %d bytes, want %d", w.IndexAt(i), len(pixels), len(dst))
		}
		for j, v := range pixels {
			dst[j] = float32(v) / 255.0
		}
	}
	return b, nil
}
