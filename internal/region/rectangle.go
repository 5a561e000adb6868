// Package region describes the screen rectangle being watched.
package region

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// MinSide is the smallest selectable width or height in pixels.
const MinSide = 10

// Rectangle is a validated screen region in screen coordinates.
// Right and Bottom are exclusive.
type Rectangle struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// New validates and returns a Rectangle.
func New(left, top, right, bottom int) (Rectangle, error) {
	r := Rectangle{Left: left, Top: top, Right: right, Bottom: bottom}
	if err := r.Validate(); err != nil {
		return Rectangle{}, err
	}
	return r, nil
}

// FromPoints builds a Rectangle from two drag corners in any order.
func FromPoints(x1, y1, x2, y2 int) (Rectangle, error) {
	return New(min(x1, x2), min(y1, y2), max(x1, x2), max(y1, y2))
}

// Parse reads "left,top,right,bottom".
func Parse(s string) (Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rectangle{}, apperrors.Newf(apperrors.CodeSelectionInvalid, "region %q: want left,top,right,bottom", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rectangle{}, apperrors.Wrapf(err, apperrors.CodeSelectionInvalid, "region %q: bad coordinate %q", s, p)
		}
		v[i] = n
	}
	return New(v[0], v[1], v[2], v[3])
}

// Validate reports a SELECTION_INVALID error when the rectangle is inverted or too small.
func (r Rectangle) Validate() error {
	if r.Right <= r.Left || r.Bottom <= r.Top {
		return apperrors.Newf(apperrors.CodeSelectionInvalid, "inverted selection (%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom).
			WithMetadata("hint", "select a larger area")
	}
	if r.Width() < MinSide || r.Height() < MinSide {
		return apperrors.Newf(apperrors.CodeSelectionInvalid, "selection %dx%d is smaller than %dx%d", r.Width(), r.Height(), MinSide, MinSide).
			WithMetadata("hint", "select a larger area")
	}
	return nil
}

func (r Rectangle) Width() int  { return r.Right - r.Left }
func (r Rectangle) Height() int { return r.Bottom - r.Top }

// Bounds converts to an image.Rectangle.
func (r Rectangle) Bounds() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// IsZero reports whether no region has been set.
func (r Rectangle) IsZero() bool { return r == Rectangle{} }

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d at (%d, %d)", r.Width(), r.Height(), r.Left, r.Top)
}
