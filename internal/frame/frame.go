// Package frame holds captured rasters in a compact, comparable form.
package frame

import (
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Layout is the channel layout of a Frame.
type Layout uint8

const (
	Gray Layout = iota + 1
	RGB
	RGBA
)

// Channels returns bytes per pixel.
func (l Layout) Channels() int {
	switch l {
	case Gray:
		return 1
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

func (l Layout) String() string {
	switch l {
	case Gray:
		return "L"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	default:
		return "unknown"
	}
}

// Frame is an immutable raster snapshot. Pix is row-major and tightly
// packed: len(Pix) == Width*Height*Layout.Channels().
type Frame struct {
	Width      int
	Height     int
	Layout     Layout
	Pix        []byte
	CapturedAt time.Time
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool { return f.Width <= 0 || f.Height <= 0 }

// Pixels returns Width*Height, or 0 for an empty frame.
func (f Frame) Pixels() int {
	if f.Empty() {
		return 0
	}
	return f.Width * f.Height
}

// Solid returns a frame of the given layout filled with c.
func Solid(w, h int, l Layout, c color.NRGBA) Frame {
	f := Frame{Width: w, Height: h, Layout: l, CapturedAt: time.Now()}
	n := f.Pixels()
	ch := l.Channels()
	f.Pix = make([]byte, n*ch)
	for i := 0; i < n; i++ {
		put(f.Pix[i*ch:(i+1)*ch], l, c.R, c.G, c.B, c.A)
	}
	return f
}

// FromImage copies img into a new Frame. *image.Gray keeps one channel,
// everything else becomes RGBA.
func FromImage(img image.Image, capturedAt time.Time) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f := Frame{Width: w, Height: h, CapturedAt: capturedAt}
	if w <= 0 || h <= 0 {
		f.Layout = RGBA
		return f
	}

	switch src := img.(type) {
	case *image.Gray:
		f.Layout = Gray
		f.Pix = copyRows(src.Pix, src.PixOffset(b.Min.X, b.Min.Y), src.Stride, w, h)
	case *image.NRGBA:
		f.Layout = RGBA
		f.Pix = copyRows(src.Pix, src.PixOffset(b.Min.X, b.Min.Y), src.Stride, w*4, h)
	case *image.RGBA:
		// Screen captures are opaque, so premultiplied and straight alpha agree.
		f.Layout = RGBA
		f.Pix = copyRows(src.Pix, src.PixOffset(b.Min.X, b.Min.Y), src.Stride, w*4, h)
	default:
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		f.Layout = RGBA
		f.Pix = dst.Pix
	}
	return f
}

func copyRows(src []byte, offset, stride, rowBytes, rows int) []byte {
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], src[offset+y*stride:offset+y*stride+rowBytes])
	}
	return out
}

// Convert returns the frame in layout l. Colour to gray uses ITU-R 601 luma.
func (f Frame) Convert(l Layout) Frame {
	if f.Layout == l {
		return f
	}
	n := f.Pixels()
	sc, dc := f.Layout.Channels(), l.Channels()
	out := Frame{Width: f.Width, Height: f.Height, Layout: l, CapturedAt: f.CapturedAt, Pix: make([]byte, n*dc)}
	for i := 0; i < n; i++ {
		r, g, b, a := get(f.Pix[i*sc:(i+1)*sc], f.Layout)
		put(out.Pix[i*dc:(i+1)*dc], l, r, g, b, a)
	}
	return out
}

func get(px []byte, l Layout) (r, g, b, a uint8) {
	switch l {
	case Gray:
		return px[0], px[0], px[0], 0xff
	case RGB:
		return px[0], px[1], px[2], 0xff
	default:
		return px[0], px[1], px[2], px[3]
	}
}

func put(px []byte, l Layout, r, g, b, a uint8) {
	switch l {
	case Gray:
		px[0] = luma(r, g, b)
	case RGB:
		px[0], px[1], px[2] = r, g, b
	default:
		px[0], px[1], px[2], px[3] = r, g, b, a
	}
}

func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// Resize returns a nearest-neighbour copy of size w×h in the same layout.
// An empty source yields a zero-filled frame.
func (f Frame) Resize(w, h int) Frame {
	if w == f.Width && h == f.Height {
		return f
	}
	if w <= 0 || h <= 0 {
		return Frame{Layout: f.Layout, CapturedAt: f.CapturedAt}
	}
	if f.Empty() {
		return Frame{Width: w, Height: h, Layout: f.Layout, CapturedAt: f.CapturedAt, Pix: make([]byte, w*h*f.Layout.Channels())}
	}
	dst := imaging.Resize(f.Image(), w, h, imaging.NearestNeighbor)
	return FromImage(dst, f.CapturedAt).Convert(f.Layout)
}

// Image exposes the frame as an image.Image. Gray and RGBA frames share
// Pix with the result, which must not be modified.
func (f Frame) Image() image.Image {
	rect := image.Rect(0, 0, max(f.Width, 0), max(f.Height, 0))
	switch f.Layout {
	case Gray:
		return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: rect}
	case RGBA:
		return &image.NRGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: rect}
	default:
		return f.Convert(RGBA).Image()
	}
}
