package pipeline

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrWindowFull is returned by Push when the window already holds Cap frames.
var ErrWindowFull = errors.New("window is full")

type slot struct {
	mat   gocv.Mat
	index int
}

// Window is a fixed-capacity ring of resized frames kept oldest-first.
// It owns the Mats pushed into it and closes them on eviction.
type Window struct {
	slots []slot
	start int
	size  int
}

// NewWindow creates an empty window holding at most capacity frames.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic(fmt.Sprintf("pipeline: invalid window capacity %d", capacity))
	}
	return &Window{slots: make([]slot, capacity)}
}

// Push appends a frame with its source index at the newest end.
func (w *Window) Push(mat gocv.Mat, index int) error {
	if w.size == len(w.slots) {
		return ErrWindowFull
	}
	pos := (w.start + w.size) % len(w.slots)
	w.slots[pos] = slot{mat: mat, index: index}
	w.size++
	return nil
}

// Evict drops and closes the oldest frame. It is a no-op on an empty window.
func (w *Window) Evict() {
	if w.size == 0 {
		return
	}
	old := &w.slots[w.start]
	old.mat.Close()
	*old = slot{}
	w.start = (w.start + 1) % len(w.slots)
	w.size--
}

// At returns the i-th frame counted from the oldest.
func (w *Window) At(i int) gocv.Mat {
	return w.slots[w.physical(i)].mat
}

// IndexAt returns the source frame index of the i-th frame counted from the oldest.
func (w *Window) IndexAt(i int) int {
	return w.slots[w.physical(i)].index
}

func (w *Window) physical(i int) int {
	if i < 0 || i >= w.size {
		panic(fmt.Sprintf("pipeline: window index %d out of range [0,%d)", i, w.size))
	}
	return (w.start + i) % len(w.slots)
}

func (w *Window) Len() int   { return w.size }
func (w *Window) Cap() int   { return len(w.slots) }
func (w *Window) Full() bool { return w.size == len(w.slots) }

// Close releases every frame still held.
func (w *Window) Close() {
	for w.size > 0 {
		w.Evict()
	}
}
