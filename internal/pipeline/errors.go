package pipeline

import (
	"errors"
	"fmt"
)

// ErrInsufficientFrames reports that the video ended before a single window
// filled, so no inference ran. It is a normal outcome, not a failure.
var ErrInsufficientFrames = errors.New("insufficient frames for a full window")

// ErrNoFrames is wrapped by SourceOpenError when a container opens but yields nothing.
var ErrNoFrames = errors.New("video contains no frames")

// SourceOpenError is returned when the input container cannot be opened or is empty.
type SourceOpenError struct {
	Path string
	Err  error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("open video source %q: %v", e.Path, e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// SinkOpenError is returned when the output encoder cannot be created,
// typically because the configured codec is unavailable on this platform.
type SinkOpenError struct {
	Path  string
	Codec string
	Err   error
}

func (e *SinkOpenError) Error() string {
	return fmt.Sprintf("open video sink %q (codec %s): %v", e.Path, e.Codec, e.Err)
}

func (e *SinkOpenError) Unwrap() error { return e.Err }

// ClassificationError is returned when the classifier fails for a window.
// Any output written before the failure must be discarded.
type ClassificationError struct {
	FrameIndex int
	Err        error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify window ending at frame %d: %v", e.FrameIndex, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
