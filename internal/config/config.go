// Package config loads settings from defaults, an optional YAML file and
// the environment, in that order of precedence (environment wins).
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/monitor"
	"github.com/GriffinCanCode/screenwatch/internal/notify"
)

type Config struct {
	HTTPAddr       string `yaml:"http_addr"`
	GRPCAddr       string `yaml:"grpc_addr"`
	LogLevel       string `yaml:"log_level"`
	CaptureBackend string `yaml:"capture_backend"`

	// Session defaults; a start request may override each of them.
	Sensitivity   float64 `yaml:"sensitivity"`    // percent of pixels
	CheckInterval float64 `yaml:"check_interval"` // seconds
	PhoneNotify   bool    `yaml:"phone_notify"`
	NtfyTopic     string  `yaml:"ntfy_topic"`

	NtfyServer           string        `yaml:"ntfy_server"`
	PushTimeout          time.Duration `yaml:"push_timeout"`
	LocalNotifyTimeout   time.Duration `yaml:"local_notify_timeout"`
	SettleDelay          time.Duration `yaml:"settle_delay"`
	ChimeEnabled         bool          `yaml:"chime_enabled"`
	ChimeDevice          string        `yaml:"chime_device"`
	ExcludedAudioDevices []string      `yaml:"excluded_audio_devices"`

	// Region, when set, is armed at boot; AutoStart then starts it.
	Region    string `yaml:"region"`
	AutoStart bool   `yaml:"auto_start"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPAddr:             ":8000",
		GRPCAddr:             ":50051",
		LogLevel:             "info",
		CaptureBackend:       "display",
		Sensitivity:          monitor.DefaultSensitivityPercent,
		CheckInterval:        monitor.DefaultInterval.Seconds(),
		NtfyServer:           notify.DefaultServer,
		PushTimeout:          notify.DefaultPushTimeout,
		LocalNotifyTimeout:   notify.DefaultLocalTimeout,
		SettleDelay:          monitor.DefaultSettleDelay,
		ExcludedAudioDevices: []string{"iphone", "teams"},
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "read config file").
				WithMetadata("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "parse config file").
				WithMetadata("path", path)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("GRPC_ADDR", c.GRPCAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.CaptureBackend = getEnv("CAPTURE_BACKEND", c.CaptureBackend)
	c.Sensitivity = getEnvFloat("SENSITIVITY", c.Sensitivity)
	c.CheckInterval = getEnvFloat("CHECK_INTERVAL", c.CheckInterval)
	c.PhoneNotify = getEnvBool("PHONE_NOTIFY", c.PhoneNotify)
	c.NtfyTopic = getEnv("NTFY_TOPIC", c.NtfyTopic)
	c.NtfyServer = getEnv("NTFY_SERVER", c.NtfyServer)
	c.PushTimeout = getEnvDuration("PUSH_TIMEOUT", c.PushTimeout)
	c.LocalNotifyTimeout = getEnvDuration("LOCAL_NOTIFY_TIMEOUT", c.LocalNotifyTimeout)
	c.SettleDelay = getEnvDuration("SETTLE_DELAY", c.SettleDelay)
	c.ChimeEnabled = getEnvBool("CHIME_ENABLED", c.ChimeEnabled)
	c.ChimeDevice = getEnv("CHIME_DEVICE", c.ChimeDevice)
	c.ExcludedAudioDevices = getEnvList("EXCLUDED_AUDIO_DEVICES", c.ExcludedAudioDevices)
	c.Region = getEnv("REGION", c.Region)
	c.AutoStart = getEnvBool("AUTO_START", c.AutoStart)
}

// Monitor returns the session defaults as a monitor.Config.
func (c *Config) Monitor() monitor.Config {
	return monitor.Config{
		SensitivityPercent: c.Sensitivity,
		Interval:           time.Duration(c.CheckInterval * float64(time.Second)),
		PhoneNotify:        c.PhoneNotify,
		NotifyTopic:        c.NtfyTopic,
	}
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring malformed number", "key", key, "value", v)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring malformed duration", "key", key, "value", v)
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
