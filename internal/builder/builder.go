// Package builder assembles the skeleton of a dream session: its identity,
// settings, characters and objects, each stamped with an entry time and a
// prominence. The narrative is compiled afterwards.
package builder

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/selector"
)

// Entry-time fractions of the session duration.
const (
	SecondaryWindow = 0.8
	GuideEntry      = 0.2
)

// Builder creates session skeletons from a library.
type Builder struct {
	lib *catalog.Library
}

// New creates a builder over lib.
func New(lib *catalog.Library) *Builder {
	return &Builder{lib: lib}
}

// Build normalizes cfg and assembles a skeleton session in the idle state.
// All randomness, including the session ID, is drawn from src.
func (b *Builder) Build(cfg dream.Config, src entropy.Source) (*dream.Session, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewRandomFromReader(entropy.Reader(src))
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	sel := selector.New(b.lib, src, selector.WithPreferences(cfg.AvoidThemes, cfg.PreferredThemes))
	d := cfg.Duration

	primary := sel.Setting(cfg.Theme)
	primary.EntryTime = 0
	settings := []dream.ContentEntry{primary}
	for _, s := range sel.SecondarySettings(primary.Key) {
		s.EntryTime = entryTime(src, d*SecondaryWindow)
		settings = append(settings, s)
	}

	characters := sel.Characters(cfg.Intensity)
	for i := range characters {
		if characters[i].Role == dream.RoleGuide {
			characters[i].EntryTime = math.Floor(d * GuideEntry)
			continue
		}
		characters[i].EntryTime = entryTime(src, d)
	}

	elements := sel.Objects(cfg.Intensity)
	for i := range elements {
		elements[i].EntryTime = entryTime(src, d)
	}

	return &dream.Session{
		ID:         id.String(),
		UserName:   cfg.UserName,
		Type:       cfg.DreamType,
		Theme:      cfg.Theme,
		Intensity:  cfg.Intensity,
		Duration:   d,
		Avoid:      cfg.AvoidThemes,
		Prefer:     cfg.PreferredThemes,
		Settings:   settings,
		Characters: characters,
		Elements:   elements,
		State:      dream.StateIdle,
	}, nil
}

// entryTime draws a whole second in [0, window].
func entryTime(src entropy.Source, window float64) float64 {
	return math.Floor(src.Float() * window)
}
