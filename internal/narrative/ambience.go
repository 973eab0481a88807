package narrative

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/selector"
)

// Soundscape levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// ambience resolves the primary setting's soundscape and lays one cue at
// the start of every stage. Cue intensity blends session intensity with
// simplex noise so neighbouring stages drift smoothly.
func (c *Compiler) ambience(s *dream.Session, stages []dream.Stage, sel *selector.Selector, src entropy.Source) dream.Ambience {
	var key string
	if p, ok := s.PrimarySetting(); ok {
		key = p.Soundscape
	}
	sc := sel.Soundscape(key)

	noise := opensimplex.NewNormalized(int64(src.Float() * (1 << 31)))

	cues := make([]dream.AmbienceCue, len(stages))
	for i, st := range stages {
		n := octaveNoise(noise, st.Start/60, float64(i), 3, 0.5, 0.5)
		v := clamp01(0.6*s.Intensity + 0.4*n)
		level := Level(v)
		texture := sc.Levels.Medium
		switch level {
		case LevelLow:
			texture = sc.Levels.Low
		case LevelHigh:
			texture = sc.Levels.High
		}
		cues[i] = dream.AmbienceCue{Time: st.Start, Level: level, Intensity: v, Texture: texture}
	}

	return dream.Ambience{
		Key:       sc.Key,
		BaseLayer: sc.BaseLayer,
		Elements:  append([]string(nil), sc.Elements...),
		Mood:      sc.Mood,
		Cues:      cues,
	}
}

// Level buckets an intensity in [0, 1] into low, medium or high.
func Level(v float64) string {
	switch {
	case v < 1.0/3:
		return LevelLow
	case v < 2.0/3:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// octaveNoise layers several frequencies of normalized noise; the result stays in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
