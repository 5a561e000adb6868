// Package audio plays the audible alert on a local output device.
package audio

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Chime defaults
const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 880.0 // A5
	DefaultDuration   = 400 * time.Millisecond

	framesPerBuffer = 1024 // ~23ms at 44100Hz
	fadeDuration    = 10 * time.Millisecond
)

// Chime plays a short sine tone. Calls are serialised; a chime that
// arrives while another is playing waits for it.
type Chime struct {
	device       string
	excludedDevs []string
	sampleRate   int
	frequency    float64
	duration     time.Duration
	mu           sync.Mutex
}

// NewChime creates a chime for the output device whose name contains
// device, or the best available speaker when device is empty.
func NewChime(device string, excludedDevices []string) *Chime {
	return &Chime{
		device:       device,
		excludedDevs: excludedDevices,
		sampleRate:   DefaultSampleRate,
		frequency:    DefaultFrequency,
		duration:     DefaultDuration,
	}
}

// Play opens the device, writes the tone and closes it again.
func (c *Chime) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	dev, err := c.outputDevice()
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(c.sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	tone := toneSamples(c.frequency, c.sampleRate, c.duration)
	for off := 0; off < len(tone); off += framesPerBuffer {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, tone[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil {
			return err
		}
	}
	slog.Debug("chime played", "device", dev.Name)
	return nil
}

func (c *Chime) outputDevice() (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if dev := c.pickDevice(devices); dev != nil {
		return dev, nil
	}
	return portaudio.DefaultOutputDevice()
}

// pickDevice returns the preferred output, or nil to use the system default.
func (c *Chime) pickDevice(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	var best *portaudio.DeviceInfo
	for _, dev := range devices {
		if dev.MaxOutputChannels < 1 || c.isExcluded(dev.Name) {
			continue
		}
		if c.device != "" {
			if containsIgnoreCase(dev.Name, c.device) {
				return dev
			}
			continue
		}
		// Loopback devices would swallow the tone.
		if isVirtual(dev.Name) {
			continue
		}
		if best == nil || preferDevice(dev.Name, best.Name) {
			best = dev
		}
	}
	return best
}

func isVirtual(name string) bool {
	for _, kw := range []string{"blackhole", "vb-cable", "loopback", "soundflower", "monitor of"} {
		if containsIgnoreCase(name, kw) {
			return true
		}
	}
	return false
}

func (c *Chime) isExcluded(name string) bool {
	for _, ex := range c.excludedDevs {
		if containsIgnoreCase(name, ex) {
			return true
		}
	}
	return false
}

// preferDevice reports whether name beats current: built-in speakers
// win over external ones.
func preferDevice(name, current string) bool {
	for _, p := range []string{"macbook", "built-in", "speaker"} {
		if containsIgnoreCase(name, p) && !containsIgnoreCase(current, p) {
			return true
		}
	}
	return false
}

// toneSamples renders a sine wave with short linear fades so the
// speaker does not click.
func toneSamples(freq float64, sampleRate int, d time.Duration) []float32 {
	n := int(d.Seconds() * float64(sampleRate))
	fade := int(fadeDuration.Seconds() * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		amp := 0.5
		switch {
		case i < fade:
			amp *= float64(i) / float64(fade)
		case i >= n-fade:
			amp *= float64(n-1-i) / float64(fade)
		}
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || containsIgnoreCaseImpl(s, substr))
}

const asciiCaseOffset = 'a' - 'A'

func containsIgnoreCaseImpl(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			c1, c2 := s[i+j], substr[j]
			if c1 >= 'A' && c1 <= 'Z' {
				c1 += asciiCaseOffset
			}
			if c2 >= 'A' && c2 <= 'Z' {
				c2 += asciiCaseOffset
			}
			if c1 != c2 {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
