// Package diff scores how much a region changed between two frames.
package diff

import (
	"bytes"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

// Score returns the percentage of pixels in b that differ from a in any channel.
// b is first converted to a's layout and resized to a's dimensions. A frame
// with no pixels scores 0.
//
// Score is symmetric only for frames of equal layout and size. Otherwise a
// is the reference: colour compared in a Gray a is reduced to luma first, so
// Score(gray, rgb) may be lower than Score(rgb, gray).
func Score(a, b frame.Frame) float64 {
	total := a.Pixels()
	if total == 0 {
		return 0
	}
	if b.Layout != a.Layout {
		b = b.Convert(a.Layout)
	}
	if b.Width != a.Width || b.Height != a.Height {
		b = b.Resize(a.Width, a.Height)
	}
	return float64(ChangedPixels(a, b)) / float64(total) * 100
}

// ChangedPixels counts pixels whose channels are not all identical.
// a and b must share layout and dimensions.
func ChangedPixels(a, b frame.Frame) int {
	ch := a.Layout.Channels()
	changed := 0
	for i, n := 0, a.Pixels(); i < n; i++ {
		off := i * ch
		if !bytes.Equal(a.Pix[off:off+ch], b.Pix[off:off+ch]) {
			changed++
		}
	}
	return changed
}

// Exceeds is the change decision: strictly greater than the sensitivity.
func Exceeds(score, sensitivityPercent float64) bool {
	return score > sensitivityPercent
}

// HashDistance returns the Hamming distance between the perceptual hashes of
// a and b. It is a diagnostic only; Score drives decisions.
func HashDistance(a, b frame.Frame) (int, error) {
	ha, err := goimagehash.PerceptionHash(a.Image())
	if err != nil {
		return 0, err
	}
	hb, err := goimagehash.PerceptionHash(b.Image())
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}
