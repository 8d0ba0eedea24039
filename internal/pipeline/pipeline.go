// Package pipeline runs sliding-window violence classification over a stream
// of decoded frames and writes every classified frame, annotated, to a sink.
//
// The window advances one frame at a time. Frames that arrive before the
// first window fills are consumed but never written, so the output holds
// N-SequenceLength+1 frames for an N frame input, and nothing at all when
// N < SequenceLength.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"gocv.io/x/gocv"
)

const (
	DefaultHeight         = 129
	DefaultWidth          = 129
	DefaultSequenceLength = 10
	DefaultThreshold      = 0.5
)

// FrameSource yields decoded frames in order. Next returns io.EOF once the
// stream is exhausted; the caller owns every Mat it returns.
type FrameSource interface {
	Next() (gocv.Mat, error)
	TotalFrameCount() int
	Position() int
}

// FrameSink receives annotated frames in source order. It must not retain img.
type FrameSink interface {
	Write(img gocv.Mat) error
}

type Options struct {
	Height         int
	Width          int
	SequenceLength int
	Threshold      float64
	Progress       ProgressFunc
}

// DefaultOptions returns a 129x129 resize target, 10 frame windows and a 0.5 threshold.
func DefaultOptions() Options {
	return Options{
		Height:         DefaultHeight,
		Width:          DefaultWidth,
		SequenceLength: DefaultSequenceLength,
		Threshold:      DefaultThreshold,
	}
}

func (o Options) validate() error {
	if o.Height <= 0 || o.Width <= 0 {
		return fmt.Errorf("invalid resize target %dx%d", o.Width, o.Height)
	}
	if o.SequenceLength <= 0 {
		return fmt.Errorf("invalid sequence length %d", o.SequenceLength)
	}
	return nil
}

// Process consumes src until io.EOF and returns one Prediction per full
// window. It does not close src or sink. The context is checked once per
// frame; cancellation returns ctx.Err().
func Process(ctx context.Context, src FrameSource, sink FrameSink, classifier Classifier, opts Options) ([]Prediction, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	window := NewWindow(opts.SequenceLength)
	defer window.Close()

	progress := newProgressTracker(src.TotalFrameCount(), opts.Progress)
	var predictions []Prediction
	target := image.Pt(opts.Width, opts.Height)

	for {
		if err := ctx.Err(); err != nil {
			return predictions, err
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return predictions, fmt.Errorf("read frame: %w", err)
		}
		index := src.Position()

		p, classified, err := step(ctx, window, frame, index, target, sink, classifier, opts)
		frame.Close()
		if err != nil {
			return predictions, err
		}
		if classified {
			predictions = append(predictions, Prediction{Probability: p, FrameIndex: index})
		}

		progress.advance()
	}

	progress.finish()
	return predictions, nil
}

// step pushes one frame into the window and, if that fills it, classifies,
// annotates and writes the frame before sliding the window by one.
func step(ctx context.Context, window *Window, frame gocv.Mat, index int, target image.Point,
	sink FrameSink, classifier Classifier, opts Options) (float64, bool, error) {
	resized := gocv.NewMat()
	if err := gocv.Resize(frame, &resized, target, 0, 0, gocv.InterpolationLinear); err != nil {
		resized.Close()
		return 0, false, fmt.Errorf("resize frame %d: %w", index, err)
	}
	if err := window.Push(resized, index); err != nil {
		resized.Close()
		return 0, false, err
	}
	if !window.Full() {
		return 0, false, nil
	}

	batch, err := newBatch(window, opts.Height, opts.Width)
	if err != nil {
		return 0, false, &ClassificationError{FrameIndex: index, Err: err}
	}
	p, err := classifier.Classify(ctx, batch)
	if err != nil {
		return 0, false, &ClassificationError{FrameIndex: index, Err: err}
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, false, &ClassificationError{FrameIndex: index, Err: fmt.Errorf("probability %v outside [0,1]", p)}
	}

	if err := Annotate(p, opts.Threshold).Draw(&frame); err != nil {
		return 0, false, fmt.Errorf("annotate frame %d: %w", index, err)
	}
	if err := sink.Write(frame); err != nil {
		return 0, false, fmt.Errorf("write frame %d: %w", index, err)
	}

	window.Evict()
	return p, true, nil
}
