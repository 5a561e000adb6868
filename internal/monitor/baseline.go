package monitor

import (
	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

// Scorer returns the percentage of pixels that differ between two frames.
type Scorer func(a, b frame.Frame) float64

// Baseline is the reference frame each tick is compared against.
// While running it belongs to the worker alone.
type Baseline struct {
	ref frame.Frame
}

// NewBaseline starts a baseline at f.
func NewBaseline(f frame.Frame) *Baseline { return &Baseline{ref: f} }

// Frame returns the current reference.
func (b *Baseline) Frame() frame.Frame { return b.ref }

// Compare scores f against the reference without changing it.
func (b *Baseline) Compare(f frame.Frame, score Scorer) float64 {
	return score(b.ref, f)
}

// Replace makes f the new reference. Only confirmed changes call this,
// so sub-threshold drift never accumulates into the reference.
func (b *Baseline) Replace(f frame.Frame) { b.ref = f }
