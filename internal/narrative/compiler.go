// Package narrative compiles a session skeleton into its full plan: the
// stage timeline, emotional arc, themes, conflicts and resolutions, the
// symbol table and the ambience track.
package narrative

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/logging"
	"github.com/talgya/dreamsim/internal/selector"
)

// Generation constants.
const (
	Keyframes        = 10
	KeyframeMin      = 0.4
	MinThemes        = 2
	MaxExtraThemes   = 3
	ThemeProminence  = 0.5
	MaxSymbols       = 10
	ConflictWindow   = 0.7
	ConflictMin      = 0.4
	SatisfactionMin  = 0.3
	MaxExtraConflict = 3
)

// Compiler expands skeleton sessions into compiled plans.
type Compiler struct {
	lib *catalog.Library
	log *slog.Logger
}

// New creates a compiler over lib.
func New(lib *catalog.Library) *Compiler {
	return &Compiler{lib: lib, log: logging.New("narrative")}
}

// Compile fills s.Narrative. The session must not have started.
func (c *Compiler) Compile(s *dream.Session, src entropy.Source) error {
	if s == nil {
		return fmt.Errorf("compile: nil session")
	}
	if s.State != "" && s.State != dream.StateIdle {
		return fmt.Errorf("compile: session %s is %s", s.ID, s.State)
	}
	sel := selector.New(c.lib, src, selector.WithPreferences(s.Avoid, s.Prefer))

	pattern := sel.Pattern(s.Type)
	n := dream.Narrative{
		Pattern: pattern,
		Stages:  Stages(pattern.Stages, s.Duration),
		Arc:     c.arc(s.Type, s.Duration, src),
		Themes:  c.themes(s.Avoid, src),
	}
	n.Conflicts = c.conflicts(s.Intensity, s.Duration, src)
	n.Resolutions = c.resolutions(n.Conflicts, s.Duration, src)
	n.Symbols = c.symbols(s, n.Conflicts)
	n.Ambience = c.ambience(s, n.Stages, sel, src)

	s.Narrative = n
	s.CurrentStage = 0
	s.Elapsed = 0
	s.State = dream.StateIdle

	c.log.Debug("narrative compiled",
		"session", s.ID,
		"pattern", pattern.Key,
		"stages", len(n.Stages),
		"conflicts", len(n.Conflicts),
		"resolutions", len(n.Resolutions),
		"symbols", len(n.Symbols),
	)
	return nil
}

// Stages partitions [0, duration] into len(labels) contiguous stages. Inner
// boundaries are whole seconds; the last stage always ends at duration.
func Stages(labels []string, duration float64) []dream.Stage {
	n := len(labels)
	if n == 0 {
		return nil
	}
	bounds := make([]float64, n+1)
	for i := 0; i < n; i++ {
		bounds[i] = math.Floor(float64(i) * duration / float64(n))
	}
	bounds[n] = duration

	stages := make([]dream.Stage, n)
	for i, label := range labels {
		stages[i] = dream.Stage{Label: label, Start: bounds[i], End: bounds[i+1]}
	}
	return stages
}

// KeyframeTimes returns count evenly spaced times from 0 to duration.
func KeyframeTimes(count int, duration float64) []float64 {
	if count < 2 {
		count = 2
	}
	times := make([]float64, count)
	for i := 0; i < count-1; i++ {
		times[i] = math.Floor(float64(i) * duration / float64(count-1))
	}
	times[count-1] = duration
	return times
}

func (c *Compiler) arc(dreamType string, duration float64, src entropy.Source) []dream.Keyframe {
	trajectory, ok := c.lib.Trajectory(dreamType)
	if !ok {
		c.log.Info("no curated trajectory, drawing emotions", "dream_type", dreamType)
	}
	times := KeyframeTimes(Keyframes, duration)
	arc := make([]dream.Keyframe, len(times))
	for i, t := range times {
		var emotion string
		if ok {
			emotion = trajectory[i%len(trajectory)]
		} else {
			emotion = entropy.Pick(src, c.lib.Emotions)
		}
		arc[i] = dream.Keyframe{
			Time:      t,
			Emotion:   emotion,
			Intensity: entropy.Range(src, KeyframeMin, 1),
		}
	}
	return arc
}

func (c *Compiler) themes(avoid []string, src entropy.Source) []dream.Theme {
	var pool []string
	for _, t := range c.lib.Themes {
		if !mentions(t.Name, avoid) {
			pool = append(pool, t.Name)
		}
	}
	if len(pool) == 0 {
		for _, t := range c.lib.Themes {
			pool = append(pool, t.Name)
		}
	}
	count := MinThemes + entropy.Intn(src, MaxExtraThemes)
	entropy.Shuffle(src, len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if count > len(pool) {
		count = len(pool)
	}
	themes := make([]dream.Theme, count)
	for i, name := range pool[:count] {
		themes[i] = dream.Theme{Name: name, Prominence: entropy.Range(src, ThemeProminence, 1)}
	}
	return themes
}
