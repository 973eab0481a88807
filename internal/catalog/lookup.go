package catalog

import "strings"

// SymbolMeaning returns the dictionary meaning of term, matched case-insensitively.
func (l *Library) SymbolMeaning(term string) (string, bool) {
	i, ok := l.symbolIndex[normalize(term)]
	if !ok {
		return "", false
	}
	return l.Symbols[i].Meaning, true
}

// SymbolCategory returns the dictionary category of term (animals, people, ...).
func (l *Library) SymbolCategory(term string) (string, bool) {
	i, ok := l.symbolIndex[normalize(term)]
	if !ok {
		return "", false
	}
	return l.Symbols[i].Category, true
}

// Interpretation returns the long-form reading of term. Terms that only
// exist in the flat dictionary get an Interpretation carrying just the
// general meaning.
func (l *Library) Interpretation(term string) (Interpretation, bool) {
	if i, ok := l.interpIndex[normalize(term)]; ok {
		return l.Interpretations[i], true
	}
	if i, ok := l.symbolIndex[normalize(term)]; ok {
		s := l.Symbols[i]
		return Interpretation{Category: s.Category, Term: s.Term, General: s.Meaning}, true
	}
	return Interpretation{}, false
}

// PatternsIn returns the patterns of one category in file order.
func (l *Library) PatternsIn(category string) []Pattern {
	var out []Pattern
	for _, p := range l.Patterns {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Trajectory returns the curated emotion sequence for a dream type.
func (l *Library) Trajectory(dreamType string) ([]string, bool) {
	t, ok := l.Trajectories[normalize(dreamType)]
	return t, ok
}

// ResolutionDescription returns the description for a resolution type applied
// to a conflict type.
func (l *Library) ResolutionDescription(resolutionType, conflictType string) string {
	for _, r := range l.Resolutions {
		if r.Type == resolutionType {
			return r.Descriptions[conflictType]
		}
	}
	return ""
}

// ThemeCommentary returns the commentary for a theme, or the generic
// sentence for themes outside the vocabulary.
func (l *Library) ThemeCommentary(name string) string {
	for _, t := range l.Themes {
		if strings.EqualFold(t.Name, name) {
			return t.Commentary
		}
	}
	return Fill(l.UnknownTheme, "name", name)
}

// Soundscape looks up a soundscape by key.
func (l *Library) Soundscape(key string) (Soundscape, bool) {
	for _, s := range l.Soundscapes {
		if strings.EqualFold(s.Key, key) {
			return s, true
		}
	}
	return Soundscape{}, false
}

// EmotionCommentary returns the emotional-processing sentence for emotion.
func (l *Library) EmotionCommentary(emotion string) (string, bool) {
	for _, e := range l.Analysis.Emotions {
		if e.Emotion == emotion {
			return e.Commentary, true
		}
	}
	return "", false
}

// ConflictCommentary returns the insight template for a conflict type.
func (l *Library) ConflictCommentary(conflictType string) string {
	for _, c := range l.Analysis.Conflicts {
		if c.Type == conflictType {
			return c.Commentary
		}
	}
	return l.Analysis.ConflictFallback
}

// EnvironmentCommentary returns the symbolism sentence for a setting. A
// setting matches an entry when its key equals the entry or its name
// contains it.
func (l *Library) EnvironmentCommentary(s Setting) (string, bool) {
	name := strings.ToLower(s.Name)
	for _, e := range l.Analysis.Environments {
		if strings.EqualFold(e.Match, s.Key) || strings.Contains(name, strings.ToLower(e.Match)) {
			return e.Commentary, true
		}
	}
	return "", false
}

// Fill substitutes {key} placeholders in template. Pairs are key, value.
func Fill(template string, pairs ...string) string {
	if len(pairs) < 2 {
		return template
	}
	args := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		args = append(args, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(args...).Replace(template)
}
