package screen

import (
	"log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/region"
)

// backend implements platform-specific capture into a PNG file.
// cropped reports whether the file already holds only rect.
type backend interface {
	captureRaw(rect region.Rectangle, path string) (cropped bool, err error)
}

// CommandSource captures by running the platform screenshot tool.
type CommandSource struct {
	backend
	tempDir string
}

// NewCommandSource creates a command-backed capturer with a private temp dir.
func NewCommandSource() (*CommandSource, error) {
	return newCommandSource(platformBackend())
}

func newCommandSource(b backend) (*CommandSource, error) {
	tmpDir, err := os.MkdirTemp("", "screenwatch-*")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "create capture temp dir")
	}
	return &CommandSource{backend: b, tempDir: tmpDir}, nil
}

// Capture runs the tool, decodes the PNG and crops it to rect when needed.
func (c *CommandSource) Capture(rect region.Rectangle) (frame.Frame, error) {
	// One file per call keeps concurrent captures independent.
	f, err := os.CreateTemp(c.tempDir, "region-*.png")
	if err != nil {
		return frame.Frame{}, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "create capture file")
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	cropped, err := c.captureRaw(rect, path)
	if err != nil {
		return frame.Frame{}, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "screenshot command failed").
			WithMetadata("region", rect.String())
	}

	img, err := imaging.Open(path)
	if err != nil {
		return frame.Frame{}, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "decode screenshot").
			WithMetadata("region", rect.String())
	}
	if !cropped {
		if !rect.Bounds().In(img.Bounds()) {
			return frame.Frame{}, apperrors.Newf(apperrors.CodeCaptureFailed, "region outside screenshot %v", img.Bounds()).
				WithMetadata("region", rect.String())
		}
		img = imaging.Crop(img, rect.Bounds())
	}
	return frame.FromImage(img, time.Now()), nil
}

// Close removes the temp directory.
func (c *CommandSource) Close() {
	if c.tempDir == "" {
		return
	}
	if err := os.RemoveAll(c.tempDir); err != nil {
		slog.Warn("failed to remove capture temp dir", "dir", c.tempDir, "error", err)
	}
}
