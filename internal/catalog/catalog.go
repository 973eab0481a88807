// Package catalog holds the content library the dream generator draws from:
// settings, characters, objects, narrative patterns, emotional trajectories,
// soundscapes, symbol meanings and the phrase tables used for events and
// analysis. A Library is decoded once and treated as read-only afterwards.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Setting is one environment a dream can take place in.
type Setting struct {
	Category    string   `yaml:"-"`
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Mood        string   `yaml:"mood"`
	Elements    []string `yaml:"elements"`
	Soundscape  string   `yaml:"soundscape"`
	Palette     []string `yaml:"palette"`
}

// Archetype is a Jungian figure that can take one of several forms.
type Archetype struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Representations []string `yaml:"representations"`
	Traits          []string `yaml:"traits"`
	Symbolism       string   `yaml:"symbolism"`
}

// Figure is one concrete example from a character or object group,
// flattened so every example is an independent candidate.
type Figure struct {
	Type         string
	Category     string
	Name         string
	Description  string
	Significance string
}

// Pattern is a narrative template.
type Pattern struct {
	Category     string   `yaml:"-"`
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Stages       []string `yaml:"stages"`
	Significance string   `yaml:"significance"`
}

// Levels describes a soundscape at three intensities.
type Levels struct {
	Low    string `yaml:"low"`
	Medium string `yaml:"medium"`
	High   string `yaml:"high"`
}

// Soundscape is an ambient audio description for a setting.
type Soundscape struct {
	Category  string   `yaml:"-"`
	Key       string   `yaml:"key"`
	BaseLayer string   `yaml:"base_layer"`
	Elements  []string `yaml:"elements"`
	Mood      string   `yaml:"mood"`
	Levels    Levels   `yaml:"levels"`
}

// SymbolEntry is a flat dictionary meaning.
type SymbolEntry struct {
	Category string `yaml:"-"`
	Term     string `yaml:"term"`
	Meaning  string `yaml:"meaning"`
}

// ContextMeaning is one contextual reading of a symbol.
type ContextMeaning struct {
	Context string `yaml:"context"`
	Meaning string `yaml:"meaning"`
}

// CulturalMeaning is one cultural reading of a symbol.
type CulturalMeaning struct {
	Culture string `yaml:"culture"`
	Meaning string `yaml:"meaning"`
}

// Interpretation is the long-form reading of a symbol.
type Interpretation struct {
	Category      string            `yaml:"-" json:"category"`
	Term          string            `yaml:"term" json:"term"`
	General       string            `yaml:"general" json:"general"`
	Contextual    []ContextMeaning  `yaml:"contextual" json:"contextual,omitempty"`
	Cultural      []CulturalMeaning `yaml:"cultural" json:"cultural,omitempty"`
	Psychological string            `yaml:"psychological" json:"psychological"`
}

// ThemeEntry is a narrative theme and the commentary used when it dominates.
type ThemeEntry struct {
	Name       string `yaml:"name"`
	Commentary string `yaml:"commentary"`
}

// ConflictType is one family of conflicts with its resolution odds.
type ConflictType struct {
	Type             string   `yaml:"type"`
	Summary          string   `yaml:"summary"`
	ResolutionChance float64  `yaml:"resolution_chance"`
	Descriptions     []string `yaml:"descriptions"`
}

// ResolutionType maps conflict types to resolution descriptions.
type ResolutionType struct {
	Type         string            `yaml:"type"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// SensePhrases groups sensory event phrases by sense.
type SensePhrases struct {
	Sense   string   `yaml:"sense"`
	Phrases []string `yaml:"phrases"`
}

// Events holds the phrase tables for emitted dream events.
type Events struct {
	StageChange       string         `yaml:"stage_change"`
	Conflict          string         `yaml:"conflict"`
	Resolution        string         `yaml:"resolution"`
	EnvironmentShift  []string       `yaml:"environment_shift"`
	SettingArrival    []string       `yaml:"setting_arrival"`
	CharacterGeneric  []string       `yaml:"character_generic"`
	CharacterSpecific []string       `yaml:"character_specific"`
	ObjectGeneric     []string       `yaml:"object_generic"`
	ObjectSpecific    []string       `yaml:"object_specific"`
	Revelation        []string       `yaml:"revelation"`
	Sensory           []SensePhrases `yaml:"sensory"`
	DreamLogic        []string       `yaml:"dream_logic"`
	MemoryEcho        []string       `yaml:"memory_echo"`
}

// Analysis holds the canned commentary used by the analyzer and pattern tracker.
type Analysis struct {
	Environments []struct {
		Match      string `yaml:"match"`
		Commentary string `yaml:"commentary"`
	} `yaml:"environments"`
	EnvironmentFallback string `yaml:"environment_fallback"`
	NoEnvironment       string `yaml:"no_environment"`
	ArchetypeCharacter  string `yaml:"archetype_character"`
	Character           string `yaml:"character"`
	CharacterFallback   string `yaml:"character_fallback"`
	NoCharacters        string `yaml:"no_characters"`
	Object              string `yaml:"object"`
	NoObjects           string `yaml:"no_objects"`
	Pattern             string `yaml:"pattern"`
	NoPattern           string `yaml:"no_pattern"`
	SymbolSignificance  string `yaml:"symbol_significance"`
	SymbolismOverview   string `yaml:"symbolism_overview"`
	InsightsOverview    string `yaml:"insights_overview"`
	Emotions            []struct {
		Emotion    string `yaml:"emotion"`
		Commentary string `yaml:"commentary"`
	} `yaml:"emotions"`
	EmotionFallback    string `yaml:"emotion_fallback"`
	EmotionTransitions string `yaml:"emotion_transitions"`
	Conflicts          []struct {
		Type       string `yaml:"type"`
		Commentary string `yaml:"commentary"`
	} `yaml:"conflicts"`
	ConflictFallback   string `yaml:"conflict_fallback"`
	ConflictResolved   string `yaml:"conflict_resolved"`
	ConflictUnresolved string `yaml:"conflict_unresolved"`
	NoConflicts        string `yaml:"no_conflicts"`
	MildConflicts      string `yaml:"mild_conflicts"`
	Growth             struct {
		Unresolved string   `yaml:"unresolved"`
		Symbols    string   `yaml:"symbols"`
		Pattern    string   `yaml:"pattern"`
		Defaults   []string `yaml:"defaults"`
	} `yaml:"growth"`
	Opening  string `yaml:"opening"`
	Closing  string `yaml:"closing"`
	FadeOut  string `yaml:"fade_out"`
	Patterns struct {
		RecurringTheme          string `yaml:"recurring_theme"`
		InsufficientThemes      string `yaml:"insufficient_themes"`
		InsufficientEmotions    string `yaml:"insufficient_emotions"`
		InsufficientProgression string `yaml:"insufficient_progression"`
		EmotionSignificance     string `yaml:"emotion_significance"`
		InsufficientArchetypes  string `yaml:"insufficient_archetypes"`
		CharacterSignificance   string `yaml:"character_significance"`
		Progression             string `yaml:"progression"`
	} `yaml:"patterns"`
}

// Library is the decoded content library. Slices preserve file order so
// that seeded generation is reproducible.
type Library struct {
	Settings            []Setting
	Archetypes          []Archetype
	Characters          []Figure
	Objects             []Figure
	PatternCategories   []string
	Patterns            []Pattern
	DreamTypeCategories map[string][]string
	DefaultStages       []string
	Emotions            []string
	Trajectories        map[string][]string
	DefaultSoundscape   string
	Soundscapes         []Soundscape
	Symbols             []SymbolEntry
	Interpretations     []Interpretation
	Themes              []ThemeEntry
	ThemeFallback       ThemeEntry
	UnknownTheme        string
	Conflicts           []ConflictType
	Resolutions         []ResolutionType
	Events              Events
	Analysis            Analysis

	symbolIndex map[string]int
	interpIndex map[string]int
}

// Load decodes the embedded library.
func Load() (*Library, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadFS decodes a library from the YAML files at the root of fsys.
func LoadFS(fsys fs.FS) (*Library, error) {
	lib := &Library{}

	var settings struct {
		Categories []struct {
			Name     string    `yaml:"name"`
			Settings []Setting `yaml:"settings"`
		} `yaml:"categories"`
	}
	if err := decode(fsys, "settings.yaml", &settings); err != nil {
		return nil, err
	}
	for _, c := range settings.Categories {
		for _, s := range c.Settings {
			s.Category = c.Name
			lib.Settings = append(lib.Settings, s)
		}
	}

	var characters struct {
		Archetypes []Archetype `yaml:"archetypes"`
		Groups     []group     `yaml:"groups"`
	}
	if err := decode(fsys, "characters.yaml", &characters); err != nil {
		return nil, err
	}
	lib.Archetypes = characters.Archetypes
	lib.Characters = flatten(characters.Groups)

	var objects struct {
		Groups []group `yaml:"groups"`
	}
	if err := decode(fsys, "objects.yaml", &objects); err != nil {
		return nil, err
	}
	lib.Objects = flatten(objects.Groups)

	var patterns struct {
		Categories []struct {
			Name     string    `yaml:"name"`
			Patterns []Pattern `yaml:"patterns"`
		} `yaml:"categories"`
		DreamTypes    map[string][]string `yaml:"dream_types"`
		DefaultStages []string            `yaml:"default_stages"`
	}
	if err := decode(fsys, "patterns.yaml", &patterns); err != nil {
		return nil, err
	}
	for _, c := range patterns.Categories {
		lib.PatternCategories = append(lib.PatternCategories, c.Name)
		for _, p := range c.Patterns {
			p.Category = c.Name
			lib.Patterns = append(lib.Patterns, p)
		}
	}
	lib.DreamTypeCategories = patterns.DreamTypes
	lib.DefaultStages = patterns.DefaultStages

	var emotions struct {
		Vocabulary   []string `yaml:"vocabulary"`
		Trajectories []struct {
			DreamType string   `yaml:"dream_type"`
			Emotions  []string `yaml:"emotions"`
		} `yaml:"trajectories"`
	}
	if err := decode(fsys, "emotions.yaml", &emotions); err != nil {
		return nil, err
	}
	lib.Emotions = emotions.Vocabulary
	lib.Trajectories = make(map[string][]string, len(emotions.Trajectories))
	for _, t := range emotions.Trajectories {
		lib.Trajectories[strings.ToLower(t.DreamType)] = t.Emotions
	}

	var soundscapes struct {
		Default    string `yaml:"default"`
		Categories []struct {
			Name        string       `yaml:"name"`
			Soundscapes []Soundscape `yaml:"soundscapes"`
		} `yaml:"categories"`
	}
	if err := decode(fsys, "soundscapes.yaml", &soundscapes); err != nil {
		return nil, err
	}
	lib.DefaultSoundscape = soundscapes.Default
	for _, c := range soundscapes.Categories {
		for _, s := range c.Soundscapes {
			s.Category = c.Name
			lib.Soundscapes = append(lib.Soundscapes, s)
		}
	}

	var symbols struct {
		Dictionary []struct {
			Category string        `yaml:"category"`
			Symbols  []SymbolEntry `yaml:"symbols"`
		} `yaml:"dictionary"`
		Interpretations []struct {
			Category string           `yaml:"category"`
			Symbols  []Interpretation `yaml:"symbols"`
		} `yaml:"interpretations"`
	}
	if err := decode(fsys, "symbols.yaml", &symbols); err != nil {
		return nil, err
	}
	for _, c := range symbols.Dictionary {
		for _, s := range c.Symbols {
			s.Category = c.Category
			lib.Symbols = append(lib.Symbols, s)
		}
	}
	for _, c := range symbols.Interpretations {
		for _, s := range c.Symbols {
			s.Category = c.Category
			lib.Interpretations = append(lib.Interpretations, s)
		}
	}

	var themes struct {
		Themes   []ThemeEntry `yaml:"themes"`
		Fallback ThemeEntry   `yaml:"fallback"`
		Unknown  string       `yaml:"unknown"`
	}
	if err := decode(fsys, "themes.yaml", &themes); err != nil {
		return nil, err
	}
	lib.Themes = themes.Themes
	lib.ThemeFallback = themes.Fallback
	lib.UnknownTheme = themes.Unknown

	var conflicts struct {
		Types       []ConflictType   `yaml:"types"`
		Resolutions []ResolutionType `yaml:"resolutions"`
	}
	if err := decode(fsys, "conflicts.yaml", &conflicts); err != nil {
		return nil, err
	}
	lib.Conflicts = conflicts.Types
	lib.Resolutions = conflicts.Resolutions

	if err := decode(fsys, "events.yaml", &lib.Events); err != nil {
		return nil, err
	}
	if err := decode(fsys, "analysis.yaml", &lib.Analysis); err != nil {
		return nil, err
	}

	if err := lib.validate(); err != nil {
		return nil, err
	}
	lib.index()
	return lib, nil
}

type group struct {
	Type       string `yaml:"type"`
	Categories []struct {
		Key          string   `yaml:"key"`
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		Examples     []string `yaml:"examples"`
		Significance string   `yaml:"significance"`
	} `yaml:"categories"`
}

func flatten(groups []group) []Figure {
	var out []Figure
	for _, g := range groups {
		for _, c := range g.Categories {
			for _, ex := range c.Examples {
				out = append(out, Figure{
					Type:         g.Type,
					Category:     c.Key,
					Name:         ex,
					Description:  c.Description,
					Significance: c.Significance,
				})
			}
		}
	}
	return out
}

func decode(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("catalog: %s: %w", name, err)
	}
	return nil
}

// validate rejects libraries the generator cannot fall back from.
// Character, object, theme, symbol and soundscape tables may be empty.
func (l *Library) validate() error {
	if len(l.Settings) == 0 {
		return fmt.Errorf("catalog: settings.yaml: no settings")
	}
	for i, s := range l.Settings {
		if s.Key == "" || s.Name == "" {
			return fmt.Errorf("catalog: settings.yaml: setting %d: key and name are required", i)
		}
	}
	if len(l.Patterns) == 0 {
		return fmt.Errorf("catalog: patterns.yaml: no patterns")
	}
	if len(l.DefaultStages) == 0 {
		return fmt.Errorf("catalog: patterns.yaml: default_stages is empty")
	}
	for dt, cats := range l.DreamTypeCategories {
		for _, c := range cats {
			if !contains(l.PatternCategories, c) {
				return fmt.Errorf("catalog: patterns.yaml: dream type %q names unknown category %q", dt, c)
			}
		}
	}
	if len(l.Emotions) == 0 {
		return fmt.Errorf("catalog: emotions.yaml: vocabulary is empty")
	}
	for dt, t := range l.Trajectories {
		if len(t) == 0 {
			return fmt.Errorf("catalog: emotions.yaml: trajectory %q is empty", dt)
		}
	}
	if len(l.Conflicts) == 0 {
		return fmt.Errorf("catalog: conflicts.yaml: no conflict types")
	}
	for _, c := range l.Conflicts {
		if c.ResolutionChance < 0 || c.ResolutionChance > 1 {
			return fmt.Errorf("catalog: conflicts.yaml: %s: resolution_chance %v outside [0, 1]", c.Type, c.ResolutionChance)
		}
		if len(c.Descriptions) == 0 {
			return fmt.Errorf("catalog: conflicts.yaml: %s: no descriptions", c.Type)
		}
	}
	for _, r := range l.Resolutions {
		for _, c := range l.Conflicts {
			if r.Descriptions[c.Type] == "" {
				return fmt.Errorf("catalog: conflicts.yaml: resolution %s has no description for %s", r.Type, c.Type)
			}
		}
	}
	return nil
}

func (l *Library) index() {
	l.symbolIndex = make(map[string]int, len(l.Symbols))
	for i, s := range l.Symbols {
		k := normalize(s.Term)
		if _, dup := l.symbolIndex[k]; !dup {
			l.symbolIndex[k] = i
		}
	}
	l.interpIndex = make(map[string]int, len(l.Interpretations))
	for i, s := range l.Interpretations {
		k := normalize(s.Term)
		if _, dup := l.interpIndex[k]; !dup {
			l.interpIndex[k] = i
		}
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
