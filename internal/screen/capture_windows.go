//go:build windows

package screen

import (
	"errors"

	"github.com/GriffinCanCode/screenwatch/internal/region"
)

type windowsBackend struct{}

// Windows has no stock screenshot CLI; use the display backend there.
func (windowsBackend) captureRaw(region.Rectangle, string) (bool, error) {
	return false, errors.New("command capture is not supported on windows, use CAPTURE_BACKEND=display")
}

func platformBackend() backend { return windowsBackend{} }
