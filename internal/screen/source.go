// Package screen captures screen regions as frames.
package screen

import (
	"image"
	"strings"
	"time"

	"github.com/kbinani/screenshot"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/region"
)

// Capture backends accepted by New.
const (
	BackendDisplay = "display"
	BackendCommand = "command"
)

// FrameSource captures the pixels of a region on demand. Implementations
// keep no state between calls other than immutable setup.
type FrameSource interface {
	Capture(rect region.Rectangle) (frame.Frame, error)
}

// New returns the FrameSource for the named backend.
func New(backend string) (FrameSource, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendDisplay:
		return NewDisplaySource(), nil
	case BackendCommand:
		return NewCommandSource()
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown capture backend %q", backend)
	}
}

// DisplaySource captures in-process through the OS display APIs.
type DisplaySource struct {
	displays func() []image.Rectangle
	grab     func(image.Rectangle) (*image.RGBA, error)
}

// NewDisplaySource creates a display-backed capturer.
func NewDisplaySource() *DisplaySource {
	return &DisplaySource{displays: activeDisplays, grab: screenshot.CaptureRect}
}

func activeDisplays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// Capture grabs rect. It fails when no display is active or rect lies
// outside the combined display area.
func (d *DisplaySource) Capture(rect region.Rectangle) (frame.Frame, error) {
	displays := d.displays()
	if len(displays) == 0 {
		return frame.Frame{}, apperrors.New(apperrors.CodeCaptureFailed, "no active displays").
			WithMetadata("region", rect.String())
	}
	var desktop image.Rectangle
	for _, b := range displays {
		desktop = desktop.Union(b)
	}
	if !rect.Bounds().In(desktop) {
		return frame.Frame{}, apperrors.Newf(apperrors.CodeCaptureFailed, "region outside desktop %v", desktop).
			WithMetadata("region", rect.String())
	}

	img, err := d.grab(rect.Bounds())
	if err != nil {
		return frame.Frame{}, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "screen capture failed").
			WithMetadata("region", rect.String())
	}
	return frame.FromImage(img, time.Now()), nil
}
