package engine

import (
	"math"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
)

// Ambient event tuning.
const (
	AmbientBase         = 0.05
	AmbientPerIntensity = 0.10
	AmbientImpactMin    = 0.5
	SettingWindow       = 10.0
	CharacterWindow     = 10.0
	ObjectWindow        = 15.0
)

// AmbientChance is the per-tick probability of an ambient event.
func AmbientChance(intensity float64) float64 {
	return AmbientBase + intensity*AmbientPerIntensity
}

// narrator turns catalog phrase tables into event text.
type narrator struct {
	lib *catalog.Library
	src entropy.Source
}

// ambient draws at most one ambient event for time t.
func (n narrator) ambient(s *dream.Session, t float64) (dream.EventType, string, float64, bool) {
	if !entropy.Chance(n.src, AmbientChance(s.Intensity)) {
		return "", "", 0, false
	}
	typ := entropy.Pick(n.src, dream.AmbientEventTypes)
	desc := n.describe(typ, s, t)
	return typ, desc, entropy.Range(n.src, AmbientImpactMin, 1), true
}

func (n narrator) describe(typ dream.EventType, s *dream.Session, t float64) string {
	ev := n.lib.Events
	switch typ {
	case dream.EventEnvironmentShift:
		if st, ok := nearest(s.Settings, t, SettingWindow, dream.RoleSecondary); ok {
			return catalog.Fill(entropy.Pick(n.src, ev.SettingArrival), "name", st.Name)
		}
		return entropy.Pick(n.src, ev.EnvironmentShift)
	case dream.EventCharacterAppearance:
		if c, ok := nearest(s.Characters, t, CharacterWindow, ""); ok {
			return catalog.Fill(entropy.Pick(n.src, ev.CharacterSpecific), "name", c.Name, "role", c.Role)
		}
		return entropy.Pick(n.src, ev.CharacterGeneric)
	case dream.EventObjectTransformation:
		if o, ok := nearest(s.Elements, t, ObjectWindow, ""); ok {
			return catalog.Fill(entropy.Pick(n.src, ev.ObjectSpecific), "name", o.Name)
		}
		return entropy.Pick(n.src, ev.ObjectGeneric)
	case dream.EventRevelation:
		return entropy.Pick(n.src, ev.Revelation)
	case dream.EventSensoryExperience:
		sense := entropy.Pick(n.src, ev.Sensory)
		return entropy.Pick(n.src, sense.Phrases)
	case dream.EventDreamLogic:
		return entropy.Pick(n.src, ev.DreamLogic)
	case dream.EventMemoryEcho:
		return entropy.Pick(n.src, ev.MemoryEcho)
	}
	return ""
}

// nearest returns the entry whose entry time is closest to t within window.
// An empty role matches any entry.
func nearest(entries []dream.ContentEntry, t, window float64, role string) (dream.ContentEntry, bool) {
	best, found := dream.ContentEntry{}, false
	bestDist := math.Inf(1)
	for _, e := range entries {
		if role != "" && e.Role != role {
			continue
		}
		d := math.Abs(e.EntryTime - t)
		if d <= window && d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}
