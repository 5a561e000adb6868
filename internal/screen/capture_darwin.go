//go:build darwin

package screen

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/GriffinCanCode/screenwatch/internal/region"
)

type darwinBackend struct{}

func (darwinBackend) captureRaw(rect region.Rectangle, path string) (bool, error) {
	// -x: no sound, -R: capture only the given rectangle
	area := fmt.Sprintf("%d,%d,%d,%d", rect.Left, rect.Top, rect.Width(), rect.Height())
	cmd := exec.Command("screencapture", "-x", "-t", "png", "-R", area, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("screencapture: %w: %s", err, stderr.String())
	}
	return true, nil
}

func platformBackend() backend { return darwinBackend{} }
