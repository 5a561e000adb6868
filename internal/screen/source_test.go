package screen

import (
	"errors"
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/disintegration/imaging"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/region"
)

func fakeDisplay(bounds ...image.Rectangle) *DisplaySource {
	return &DisplaySource{
		displays: func() []image.Rectangle { return bounds },
		grab: func(r image.Rectangle) (*image.RGBA, error) {
			img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			for i := range img.Pix {
				img.Pix[i] = 0xff
			}
			return img, nil
		},
	}
}

func TestNew(t *testing.T) {
	src, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") error: %v", err)
	}
	if _, ok := src.(*DisplaySource); !ok {
		t.Errorf("default backend = %T, want *DisplaySource", src)
	}

	if _, err := New("carrier-pigeon"); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("unknown backend error = %v", err)
	}
}

func TestDisplaySourceCapture(t *testing.T) {
	src := fakeDisplay(image.Rect(0, 0, 1920, 1080))
	rect := region.Rectangle{Left: 100, Top: 100, Right: 150, Bottom: 130}

	f, err := src.Capture(rect)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if f.Width != 50 || f.Height != 30 {
		t.Errorf("frame size = %dx%d, want 50x30", f.Width, f.Height)
	}
	if f.Layout != frame.RGBA {
		t.Errorf("layout = %v, want RGBA", f.Layout)
	}
	if f.CapturedAt.IsZero() {
		t.Error("CapturedAt not set")
	}
}

func TestDisplaySourceSpansDisplays(t *testing.T) {
	src := fakeDisplay(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3840, 1080))
	if _, err := src.Capture(region.Rectangle{Left: 1900, Top: 10, Right: 1950, Bottom: 60}); err != nil {
		t.Errorf("region across displays failed: %v", err)
	}
}

func TestDisplaySourceErrors(t *testing.T) {
	t.Run("no displays", func(t *testing.T) {
		src := fakeDisplay()
		_, err := src.Capture(region.Rectangle{Left: 0, Top: 0, Right: 20, Bottom: 20})
		if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
			t.Errorf("error = %v, want CAPTURE_FAILED", err)
		}
	})

	t.Run("off screen", func(t *testing.T) {
		src := fakeDisplay(image.Rect(0, 0, 800, 600))
		_, err := src.Capture(region.Rectangle{Left: 790, Top: 590, Right: 820, Bottom: 620})
		if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
			t.Errorf("error = %v, want CAPTURE_FAILED", err)
		}
	})

	t.Run("grab fails", func(t *testing.T) {
		src := fakeDisplay(image.Rect(0, 0, 800, 600))
		cause := errors.New("permission denied")
		src.grab = func(image.Rectangle) (*image.RGBA, error) { return nil, cause }
		_, err := src.Capture(region.Rectangle{Left: 0, Top: 0, Right: 20, Bottom: 20})
		if !errors.Is(err, cause) {
			t.Errorf("error should wrap cause, got %v", err)
		}
	})
}

// pngBackend writes a fixed image instead of shelling out.
type pngBackend struct {
	img     image.Image
	cropped bool
	err     error
}

func (b pngBackend) captureRaw(_ region.Rectangle, path string) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	return b.cropped, imaging.Save(b.img, path)
}

func TestCommandSourceCropsFullScreen(t *testing.T) {
	full := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	// Paint the area we will ask for.
	for y := 20; y < 40; y++ {
		for x := 50; x < 80; x++ {
			full.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}

	src, err := newCommandSource(pngBackend{img: full})
	if err != nil {
		t.Fatalf("newCommandSource: %v", err)
	}
	defer src.Close()

	f, err := src.Capture(region.Rectangle{Left: 50, Top: 20, Right: 80, Bottom: 40})
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if f.Width != 30 || f.Height != 20 {
		t.Fatalf("frame size = %dx%d, want 30x20", f.Width, f.Height)
	}
	for i, v := range f.Convert(frame.Gray).Pix {
		if v != 255 {
			t.Fatalf("pixel %d = %d, want 255", i, v)
		}
	}
}

func TestCommandSourcePreCropped(t *testing.T) {
	src, err := newCommandSource(pngBackend{img: imaging.New(40, 25, color.NRGBA{1, 2, 3, 255}), cropped: true})
	if err != nil {
		t.Fatalf("newCommandSource: %v", err)
	}
	defer src.Close()

	f, err := src.Capture(region.Rectangle{Left: 500, Top: 500, Right: 540, Bottom: 525})
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if f.Width != 40 || f.Height != 25 {
		t.Errorf("frame size = %dx%d, want 40x25", f.Width, f.Height)
	}
}

func TestCommandSourceFailures(t *testing.T) {
	src, err := newCommandSource(pngBackend{err: errors.New("tool missing")})
	if err != nil {
		t.Fatalf("newCommandSource: %v", err)
	}
	_, err = src.Capture(region.Rectangle{Left: 0, Top: 0, Right: 20, Bottom: 20})
	if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
		t.Errorf("error = %v, want CAPTURE_FAILED", err)
	}

	dir := src.tempDir
	src.Close()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still exists after Close", dir)
	}
}

func TestCommandSourceRegionOutsideScreenshot(t *testing.T) {
	src, err := newCommandSource(pngBackend{img: imaging.New(100, 100, color.NRGBA{A: 255})})
	if err != nil {
		t.Fatalf("newCommandSource: %v", err)
	}
	defer src.Close()

	_, err = src.Capture(region.Rectangle{Left: 90, Top: 90, Right: 120, Bottom: 120})
	if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
		t.Errorf("error = %v, want CAPTURE_FAILED", err)
	}
}
