package video

import (
	"errors"
	"fmt"
	"io"

	"violencedetector/internal/pipeline"

	"gocv.io/x/gocv"
)

// Source decodes a video container frame by frame.
type Source struct {
	path     string
	capture  *gocv.VideoCapture
	pending  *gocv.Mat // first frame read while probing a container with no frame count
	total    int
	width    int
	height   int
	position int
	closed   bool
}

// OpenSource opens the container at path. It fails with *pipeline.SourceOpenError
// when the file cannot be opened or holds no frames. A container that reports
// a zero frame count is probed with one read before being rejected.
func OpenSource(path string) (*Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, &pipeline.SourceOpenError{Path: path, Err: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &pipeline.SourceOpenError{Path: path, Err: errors.New("container could not be opened")}
	}

	s := &Source{
		path:     path,
		capture:  capture,
		total:    int(capture.Get(gocv.VideoCaptureFrameCount)),
		width:    int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:   int(capture.Get(gocv.VideoCaptureFrameHeight)),
		position: -1,
	}
	if s.total < 0 {
		s.total = 0
	}

	if s.total == 0 || s.width <= 0 || s.height <= 0 {
		first := gocv.NewMat()
		if ok := capture.Read(&first); !ok || first.Empty() {
			first.Close()
			capture.Close()
			return nil, &pipeline.SourceOpenError{Path: path, Err: pipeline.ErrNoFrames}
		}
		s.pending = &first
		s.width = first.Cols()
		s.height = first.Rows()
	}

	return s, nil
}

// Next returns the next decoded frame, or io.EOF when the stream is exhausted.
func (s *Source) Next() (gocv.Mat, error) {
	if s.closed {
		return gocv.Mat{}, fmt.Errorf("read from closed source %q", s.path)
	}

	if s.pending != nil {
		frame := *s.pending
		s.pending = nil
		s.position++
		return frame, nil
	}

	frame := gocv.NewMat()
	if ok := s.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, io.EOF
	}
	s.position++
	return frame, nil
}

// TotalFrameCount is the container-reported frame count; 0 when unknown.
func (s *Source) TotalFrameCount() int { return s.total }

// Position is the 0-based index of the frame last returned by Next, -1 before the first.
func (s *Source) Position() int { return s.position }

func (s *Source) Width() int  { return s.width }
func (s *Source) Height() int { return s.height }

// Close releases the decoder. It is safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.pending != nil {
		s.pending.Close()
		s.pending = nil
	}
	return s.capture.Close()
}
