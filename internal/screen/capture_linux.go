//go:build linux

package screen

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"

	"github.com/GriffinCanCode/screenwatch/internal/region"
)

type linuxBackend struct{}

func (linuxBackend) captureRaw(rect region.Rectangle, path string) (bool, error) {
	// Prefer scrot, which can grab the region directly; gnome-screenshot
	// only does full screen and needs cropping afterwards.
	var cmd *exec.Cmd
	cropped := false
	if _, err := exec.LookPath("scrot"); err == nil {
		area := fmt.Sprintf("%d,%d,%d,%d", rect.Left, rect.Top, rect.Width(), rect.Height())
		cmd = exec.Command("scrot", "-o", "-a", area, path)
		cropped = true
	} else if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		cmd = exec.Command("gnome-screenshot", "-f", path)
	} else {
		return false, errors.New("no screenshot tool found (install scrot or gnome-screenshot)")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("%s: %w: %s", cmd.Path, err, stderr.String())
	}
	return cropped, nil
}

func platformBackend() backend { return linuxBackend{} }
