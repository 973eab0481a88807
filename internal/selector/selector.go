// Content selection: picks settings, characters, objects, patterns and
// soundscapes from the library given a theme or dream-type hint.
// No hint is ever an error; unmatched hints fall back to a random draw.
package selector

import (
	"log/slog"
	"math"
	"strings"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/logging"
)

// Count scaling and prominence sub-ranges.
const (
	BaseCharacters          = 2
	MaxAdditionalCharacters = 5
	BaseObjects             = 3
	MaxAdditionalObjects    = 7
	KeyObjects              = 2
	MaxSecondarySettings    = 3
)

// Span is a half-open prominence range.
type Span struct{ Lo, Hi float64 }

var (
	PrimaryProminence    = Span{0.8, 1.0}
	SecondaryProminence  = Span{0.3, 0.8}
	GuideProminence      = Span{0.7, 1.0}
	CharacterProminence  = Span{0.3, 0.9}
	KeyObjectProminence  = Span{0.7, 1.0}
	SupportingProminence = Span{0.2, 0.7}
)

func (s Span) draw(src entropy.Source) float64 {
	return entropy.Range(src, s.Lo, s.Hi)
}

// Selector draws catalog entries. It is not safe for concurrent use; the
// session builder owns one per build.
type Selector struct {
	lib    *catalog.Library
	src    entropy.Source
	avoid  []string
	prefer []string
	log    *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithPreferences sets themes to avoid and themes to try before a random fallback.
func WithPreferences(avoid, prefer []string) Option {
	return func(s *Selector) {
		s.avoid = lowerAll(avoid)
		s.prefer = lowerAll(prefer)
	}
}

// New creates a selector over lib drawing from src.
func New(lib *catalog.Library, src entropy.Source, opts ...Option) *Selector {
	s := &Selector{lib: lib, src: src, log: logging.New("selector")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CharacterCount returns how many characters a session of this intensity
// holds, clamped to available.
func CharacterCount(intensity float64, available int) int {
	return clampCount(BaseCharacters+int(math.Floor(intensity*MaxAdditionalCharacters)), available)
}

// ObjectCount returns how many objects a session of this intensity holds,
// clamped to available.
func ObjectCount(intensity float64, available int) int {
	return clampCount(BaseObjects+int(math.Floor(intensity*MaxAdditionalObjects)), available)
}

func clampCount(n, available int) int {
	if n > available {
		return available
	}
	if n < 0 {
		return 0
	}
	return n
}

// Setting picks the primary setting for theme: exact key match, then a
// substring match in either direction, then preferred themes, then a
// uniform draw.
func (s *Selector) Setting(theme string) dream.ContentEntry {
	pool := s.settingPool(nil)
	chosen, ok := matchSetting(pool, theme)
	if !ok {
		for _, p := range s.prefer {
			if chosen, ok = matchSetting(pool, p); ok {
				s.log.Debug("theme matched through preference", "theme", theme, "preference", p)
				break
			}
		}
	}
	if !ok {
		chosen = entropy.Pick(s.src, pool)
		s.log.Info("theme fallback", "theme", theme, "setting", chosen.Key)
	}
	return settingEntry(chosen, dream.RolePrimary, PrimaryProminence.draw(s.src))
}

// SecondarySettings picks one to three further settings, never repeating
// the primary one.
func (s *Selector) SecondarySettings(primaryKey string) []dream.ContentEntry {
	n := 1 + entropy.Intn(s.src, MaxSecondarySettings)
	pool := s.settingPool(func(st catalog.Setting) bool { return st.Key != primaryKey })
	shuffle(s.src, pool)
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]dream.ContentEntry, 0, n)
	for _, st := range pool[:n] {
		out = append(out, settingEntry(st, dream.RoleSecondary, SecondaryProminence.draw(s.src)))
	}
	return out
}

// Characters picks the cast: an archetype guide followed by an antagonist
// and supporting figures.
func (s *Selector) Characters(intensity float64) []dream.ContentEntry {
	archetypes := keep(s.lib.Archetypes, func(a catalog.Archetype) bool {
		return !s.avoided(a.Key, a.Name, a.Description, strings.Join(a.Representations, " "))
	}, s.log, "archetypes")
	figures := s.figurePool(s.lib.Characters, "characters")

	available := len(figures)
	if len(archetypes) > 0 {
		available++
	}
	n := CharacterCount(intensity, available)
	out := make([]dream.ContentEntry, 0, n)

	if len(archetypes) > 0 && n > 0 {
		a := entropy.Pick(s.src, archetypes)
		form := entropy.Pick(s.src, a.Representations)
		out = append(out, dream.ContentEntry{
			Kind:         dream.KindCharacter,
			Type:         dream.TypeArchetype,
			Category:     a.Key,
			Key:          a.Key,
			Name:         a.Name,
			Description:  a.Description,
			Role:         dream.RoleGuide,
			Form:         form,
			Significance: a.Symbolism,
			Traits:       append([]string(nil), a.Traits...),
			Prominence:   GuideProminence.draw(s.src),
		})
	}

	shuffle(s.src, figures)
	for i := 0; len(out) < n; i++ {
		role := dream.RoleSupporting
		if i == 0 {
			role = dream.RoleAntagonist
		}
		out = append(out, figureEntry(figures[i], dream.KindCharacter, role, CharacterProminence.draw(s.src)))
	}
	return out
}

// Objects picks the session's objects; the first two are key objects.
func (s *Selector) Objects(intensity float64) []dream.ContentEntry {
	figures := s.figurePool(s.lib.Objects, "objects")
	n := ObjectCount(intensity, len(figures))
	shuffle(s.src, figures)
	out := make([]dream.ContentEntry, 0, n)
	for i, f := range figures[:n] {
		role, span := dream.RoleSupporting, SupportingProminence
		if i < KeyObjects {
			role, span = dream.RoleKey, KeyObjectProminence
		}
		out = append(out, figureEntry(f, dream.KindObject, role, span.draw(s.src)))
	}
	return out
}

// Pattern picks a narrative pattern. Known dream types narrow the draw to
// their categories; unknown types draw from every category.
func (s *Selector) Pattern(dreamType string) dream.Pattern {
	cats, ok := s.lib.DreamTypeCategories[strings.ToLower(dreamType)]
	if !ok || len(cats) == 0 {
		s.log.Info("dream type fallback", "dream_type", dreamType)
		cats = s.lib.PatternCategories
	}
	category := entropy.Pick(s.src, cats)

	patterns := keep(s.lib.PatternsIn(category), func(p catalog.Pattern) bool {
		return !s.avoided(p.Key, p.Name, strings.Join(p.Stages, " "))
	}, s.log, "patterns")
	if len(patterns) == 0 {
		patterns = s.lib.Patterns
	}
	p := entropy.Pick(s.src, patterns)

	stages := p.Stages
	if len(stages) == 0 {
		stages = s.lib.DefaultStages
	}
	return dream.Pattern{
		Category:     p.Category,
		Key:          p.Key,
		Name:         p.Name,
		Description:  p.Description,
		Stages:       append([]string(nil), stages...),
		Significance: p.Significance,
	}
}

// Soundscape resolves a setting's soundscape key with the same exact then
// substring matching, falling back to the library default.
func (s *Selector) Soundscape(key string) catalog.Soundscape {
	k := strings.ToLower(key)
	for _, sc := range s.lib.Soundscapes {
		if strings.ToLower(sc.Key) == k {
			return sc
		}
	}
	if k != "" {
		for _, sc := range s.lib.Soundscapes {
			sk := strings.ToLower(sc.Key)
			if strings.Contains(sk, k) || strings.Contains(k, sk) {
				return sc
			}
		}
	}
	if sc, ok := s.lib.Soundscape(s.lib.DefaultSoundscape); ok {
		return sc
	}
	if len(s.lib.Soundscapes) > 0 {
		return s.lib.Soundscapes[0]
	}
	return catalog.Soundscape{Key: s.lib.DefaultSoundscape}
}

func matchSetting(pool []catalog.Setting, theme string) (catalog.Setting, bool) {
	t := strings.ToLower(strings.TrimSpace(theme))
	if t == "" {
		return catalog.Setting{}, false
	}
	for _, st := range pool {
		if strings.ToLower(st.Key) == t {
			return st, true
		}
	}
	for _, st := range pool {
		k := strings.ToLower(st.Key)
		if strings.Contains(k, t) || strings.Contains(t, k) {
			return st, true
		}
	}
	return catalog.Setting{}, false
}

func (s *Selector) settingPool(extra func(catalog.Setting) bool) []catalog.Setting {
	base := s.lib.Settings
	if extra != nil {
		base = nil
		for _, st := range s.lib.Settings {
			if extra(st) {
				base = append(base, st)
			}
		}
	}
	return keep(base, func(st catalog.Setting) bool {
		return !s.avoided(st.Key, st.Name, st.Mood, st.Description, strings.Join(st.Elements, " "))
	}, s.log, "settings")
}

func (s *Selector) figurePool(all []catalog.Figure, what string) []catalog.Figure {
	return keep(all, func(f catalog.Figure) bool {
		return !s.avoided(f.Name, f.Category, f.Description)
	}, s.log, what)
}

func settingEntry(st catalog.Setting, role string, prominence float64) dream.ContentEntry {
	return dream.ContentEntry{
		Kind:        dream.KindSetting,
		Type:        st.Category,
		Category:    st.Category,
		Key:         st.Key,
		Name:        st.Name,
		Description: st.Description,
		Mood:        st.Mood,
		Role:        role,
		Elements:    append([]string(nil), st.Elements...),
		Soundscape:  st.Soundscape,
		Palette:     append([]string(nil), st.Palette...),
		Prominence:  prominence,
	}
}

func figureEntry(f catalog.Figure, kind dream.ContentKind, role string, prominence float64) dream.ContentEntry {
	return dream.ContentEntry{
		Kind:         kind,
		Type:         f.Type,
		Category:     f.Category,
		Name:         f.Name,
		Description:  f.Description,
		Role:         role,
		Significance: f.Significance,
		Prominence:   prominence,
	}
}
