package video

import (
	"errors"
	"fmt"

	"violencedetector/internal/pipeline"

	"gocv.io/x/gocv"
)

// Sink encodes frames into a video file at a fixed frame rate and size.
type Sink struct {
	path   string
	writer *gocv.VideoWriter
	width  int
	height int
	frames int
	closed bool
}

// CreateSink opens an encoder for path. Codec is a FourCC such as "mp4v",
// "avc1" or "MJPG"; which ones work depends on the OpenCV build.
func CreateSink(path, codec string, fps float64, width, height int) (*Sink, error) {
	if width <= 0 || height <= 0 {
		return nil, &pipeline.SinkOpenError{Path: path, Codec: codec, Err: fmt.Errorf("invalid frame size %dx%d", width, height)}
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, &pipeline.SinkOpenError{Path: path, Codec: codec, Err: err}
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, &pipeline.SinkOpenError{Path: path, Codec: codec, Err: errors.New("encoder could not be opened")}
	}

	return &Sink{path: path, writer: writer, width: width, height: height}, nil
}

// Write encodes one frame. Frames must match the sink's size.
func (s *Sink) Write(img gocv.Mat) error {
	if s.closed {
		return fmt.Errorf("write to closed sink %q", s.path)
	}
	if img.Cols() != s.width || img.Rows() != s.height {
		return fmt.Errorf("frame is %dx%d, sink expects %dx%d", img.Cols(), img.Rows(), s.width, s.height)
	}
	if err := s.writer.Write(img); err != nil {
		return err
	}
	s.frames++
	return nil
}

// Frames returns how many frames were written.
func (s *Sink) Frames() int { return s.frames }

func (s *Sink) Path() string { return s.path }

// Close flushes and releases the encoder. It is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}
