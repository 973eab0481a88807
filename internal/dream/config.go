package dream

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Defaults applied by DefaultConfig and Normalize.
const (
	DefaultDreamType = "vivid"
	DefaultTheme     = "adventure"
	DefaultIntensity = 0.5
	DefaultDuration  = 480.0

	// MaxDuration bounds a session to one day of simulated time.
	MaxDuration = 24 * 60 * 60.0
	// MaxUserName bounds the stored user name.
	MaxUserName = 128
)

// Well-known dream types. Other values are accepted and fall back to
// random pattern categories and emotion draws.
const (
	TypeVivid     = "vivid"
	TypeLucid     = "lucid"
	TypeNightmare = "nightmare"
	TypeAbstract  = "abstract"
)

// ErrInvalidConfig matches every ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid dream configuration")

// ConfigError reports a configuration field that has no sane fallback.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("dream config: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Config describes the session to build. Duration is in seconds.
type Config struct {
	DreamType       string   `json:"dream_type"`
	Theme           string   `json:"theme"`
	Intensity       float64  `json:"intensity"`
	Duration        float64  `json:"duration"`
	UserName        string   `json:"user_name,omitempty"`
	AvoidThemes     []string `json:"avoid_themes,omitempty"`
	PreferredThemes []string `json:"preferred_themes,omitempty"`
}

// DefaultConfig returns a vivid adventure of eight minutes at half intensity.
func DefaultConfig() Config {
	return Config{
		DreamType: DefaultDreamType,
		Theme:     DefaultTheme,
		Intensity: DefaultIntensity,
		Duration:  DefaultDuration,
	}
}

// Normalize applies fallbacks and rejects values that cannot be repaired.
// Out-of-range intensity is clamped, a zero duration becomes the default,
// and blank type or theme fall back to the defaults.
func (c Config) Normalize() (Config, error) {
	if math.IsNaN(c.Intensity) || math.IsInf(c.Intensity, 0) {
		return c, &ConfigError{Field: "intensity", Reason: "must be a finite number"}
	}
	if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return c, &ConfigError{Field: "duration", Reason: "must be a finite number"}
	}
	if c.Duration < 0 {
		return c, &ConfigError{Field: "duration", Reason: fmt.Sprintf("%v is negative", c.Duration)}
	}
	if c.Duration > MaxDuration {
		return c, &ConfigError{Field: "duration", Reason: fmt.Sprintf("%v exceeds %v seconds", c.Duration, MaxDuration)}
	}
	if len(c.UserName) > MaxUserName {
		return c, &ConfigError{Field: "user_name", Reason: fmt.Sprintf("longer than %d bytes", MaxUserName)}
	}

	c.DreamType = strings.ToLower(strings.TrimSpace(c.DreamType))
	if c.DreamType == "" {
		c.DreamType = DefaultDreamType
	}
	c.Theme = strings.TrimSpace(c.Theme)
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	if c.Intensity < 0 || c.Intensity > 1 {
		clamped := math.Min(1, math.Max(0, c.Intensity))
		slog.Info("intensity clamped", "requested", c.Intensity, "used", clamped)
		c.Intensity = clamped
	}
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	c.UserName = strings.TrimSpace(c.UserName)
	c.AvoidThemes = cleanList(c.AvoidThemes)
	c.PreferredThemes = cleanList(c.PreferredThemes)
	return c, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
