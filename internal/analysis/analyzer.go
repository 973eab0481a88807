// Package analysis turns a finished dream session into its report: a short
// summary, a chronological narrative, symbolism and psychological insights.
// Every phrase comes from the catalog's analysis tables, so the same session
// always yields the same report.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
)

// Report thresholds.
const (
	SummaryProminence     = 0.7
	SummaryConflict       = 0.7
	SummaryEmotions       = 3
	NarrativeWindow       = 60.0
	ClosingFraction       = 0.8
	MajorSymbols          = 5
	TopThemes             = 3
	SignificantConflict   = 0.6
	GrowthSymbol          = 0.7
	SignificantProminence = 0.6
	SignificantImpact     = 0.7
	MaxSignificantEvents  = 10
)

// Analyzer builds reports from the library's commentary tables.
type Analyzer struct {
	lib *catalog.Library
}

// New creates an analyzer over lib.
func New(lib *catalog.Library) *Analyzer {
	return &Analyzer{lib: lib}
}

// Analyze reads s and returns its report. s is not modified.
func (a *Analyzer) Analyze(s *dream.Session) dream.Report {
	events := s.Events()
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time < events[j].Time })

	r := dream.Report{
		SessionID:         s.ID,
		DreamType:         s.Type,
		Theme:             s.Theme,
		Duration:          s.Duration,
		Summary:           a.Summary(s),
		Narrative:         a.Narrative(s, events),
		Symbolism:         a.Symbolism(s),
		Insights:          a.Insights(s),
		EmotionalJourney:  append([]dream.Keyframe(nil), s.Narrative.Arc...),
		Significant:       significantElements(s),
		SignificantEvents: significantEvents(events),
		Pattern:           s.Narrative.Pattern,
	}
	for _, c := range s.Narrative.Conflicts {
		cp := *c
		if c.Resolution != nil {
			res := *c.Resolution
			cp.Resolution = &res
		}
		r.Conflicts = append(r.Conflicts, cp)
	}
	for _, res := range s.Narrative.Resolutions {
		r.Resolutions = append(r.Resolutions, *res)
	}
	return r
}

// Summary is one paragraph naming the primary setting, the prominent
// characters, the intense conflicts and the dominant emotions.
func (a *Analyzer) Summary(s *dream.Session) string {
	var b strings.Builder
	setting := "an unknown place"
	if p, ok := s.PrimarySetting(); ok {
		setting = p.Name
	}
	fmt.Fprintf(&b, "A %s dream set in %s. ", s.Type, setting)

	var main []string
	for _, c := range s.Characters {
		if c.Prominence > SummaryProminence {
			main = append(main, c.Name)
		}
	}
	if len(main) > 0 {
		fmt.Fprintf(&b, "Featuring %s. ", strings.Join(main, ", "))
	}

	var tense []string
	for _, c := range s.Narrative.Conflicts {
		if c.Intensity > SummaryConflict {
			tense = append(tense, c.Description)
		}
	}
	if len(tense) > 0 {
		fmt.Fprintf(&b, "Involved %s. ", strings.Join(tense, " and "))
	}

	emotions := s.Narrative.DominantEmotions()
	if len(emotions) > SummaryEmotions {
		emotions = emotions[:SummaryEmotions]
	}
	if len(emotions) > 0 {
		fmt.Fprintf(&b, "The dream evoked feelings of %s.", strings.Join(emotions, ", "))
	}
	return strings.TrimSpace(b.String())
}

// Narrative groups events into one-minute paragraphs between an opening
// drawn from the primary setting and a closing drawn from the final stage.
func (a *Analyzer) Narrative(s *dream.Session, events []dream.Event) string {
	t := a.lib.Analysis
	var b strings.Builder
	if p, ok := s.PrimarySetting(); ok {
		b.WriteString(catalog.Fill(t.Opening, "name", p.Name, "description", strings.TrimSuffix(p.Description, ".")))
	}

	windows := int(math.Ceil(s.Duration / NarrativeWindow))
	for i := 0; i < windows; i++ {
		start, end := float64(i)*NarrativeWindow, float64(i+1)*NarrativeWindow
		last := i == windows-1
		var para strings.Builder
		for _, e := range events {
			if e.Time >= start && (e.Time < end || last && e.Time <= s.Duration) {
				para.WriteString(e.Description)
				para.WriteString(". ")
			}
		}
		if para.Len() > 0 {
			b.WriteString(para.String())
			b.WriteString("\n\n")
		}
	}

	var closing []string
	if n := len(s.Narrative.Stages); n > 0 {
		for _, e := range s.Narrative.Stages[n-1].Events {
			if e.Time > s.Duration*ClosingFraction {
				closing = append(closing, strings.ToLower(e.Description))
			}
		}
	}
	if len(closing) > 0 {
		b.WriteString(t.Closing)
		b.WriteString(strings.Join(closing, ". "))
		b.WriteString(".")
	} else {
		b.WriteString(t.FadeOut)
	}
	return b.String()
}

// Symbolism reads the top symbols plus one sentence per content category.
func (a *Analyzer) Symbolism(s *dream.Session) dream.Symbolism {
	t := a.lib.Analysis
	out := dream.Symbolism{Overview: t.SymbolismOverview}

	symbols := s.Narrative.Symbols
	if len(symbols) > MajorSymbols {
		symbols = symbols[:MajorSymbols]
	}
	for _, sym := range symbols {
		out.MajorSymbols = append(out.MajorSymbols, dream.MajorSymbol{
			Symbol:  sym.Symbol,
			Meaning: sym.Meaning,
			Significance: catalog.Fill(t.SymbolSignificance,
				"source", sym.Source,
				"percent", fmt.Sprintf("%d", int(math.Round(sym.Importance*100))),
			),
		})
	}

	out.Environment = t.NoEnvironment
	if p, ok := s.PrimarySetting(); ok {
		if c, ok := a.lib.EnvironmentCommentary(catalog.Setting{Key: p.Key, Name: p.Name}); ok {
			out.Environment = c
		} else {
			out.Environment = catalog.Fill(t.EnvironmentFallback, "name", p.Name, "mood", p.Mood)
		}
	}

	out.Character = t.NoCharacters
	if c, ok := mostProminent(s.Characters); ok {
		switch {
		case c.Type == dream.TypeArchetype:
			out.Character = catalog.Fill(t.ArchetypeCharacter, "name", c.Name, "form", c.Form, "significance", c.Significance)
		case c.Significance != "":
			out.Character = catalog.Fill(t.Character, "name", c.Name, "significance", c.Significance)
		default:
			out.Character = catalog.Fill(t.CharacterFallback, "name", c.Name)
		}
	}

	out.Object = t.NoObjects
	if o, ok := mostProminent(s.Elements); ok {
		out.Object = catalog.Fill(t.Object, "name", o.Name, "significance", o.Significance)
	}

	out.Narrative = t.NoPattern
	if p := s.Narrative.Pattern; p.Name != "" {
		out.Narrative = catalog.Fill(t.Pattern, "name", p.Name, "significance", p.Significance)
	}
	return out
}

// Insights reads themes, emotions, conflicts and growth areas.
func (a *Analyzer) Insights(s *dream.Session) dream.Insights {
	return dream.Insights{
		Overview:            a.lib.Analysis.InsightsOverview,
		PrimaryThemes:       a.primaryThemes(s.Narrative.Themes),
		EmotionalProcessing: a.emotionalProcessing(&s.Narrative),
		InnerConflicts:      a.innerConflicts(s.Narrative.Conflicts),
		GrowthAreas:         a.growthAreas(&s.Narrative),
	}
}

func (a *Analyzer) primaryThemes(themes []dream.Theme) []dream.ThemeInsight {
	if len(themes) == 0 {
		f := a.lib.ThemeFallback
		return []dream.ThemeInsight{{Theme: f.Name, Analysis: f.Commentary}}
	}
	sorted := append([]dream.Theme(nil), themes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Prominence > sorted[j].Prominence })
	if len(sorted) > TopThemes {
		sorted = sorted[:TopThemes]
	}
	out := make([]dream.ThemeInsight, len(sorted))
	for i, th := range sorted {
		out[i] = dream.ThemeInsight{Theme: th.Name, Analysis: a.lib.ThemeCommentary(th.Name)}
	}
	return out
}

func (a *Analyzer) emotionalProcessing(n *dream.Narrative) string {
	t := a.lib.Analysis
	emotions := n.DominantEmotions()
	var text string
	if len(emotions) > 0 {
		text, _ = a.lib.EmotionCommentary(emotions[0])
	}
	if text == "" {
		text = catalog.Fill(t.EmotionFallback, "emotions", strings.Join(emotions, ", "))
	}
	if len(emotions) > 2 {
		text += " " + t.EmotionTransitions
	}
	return text
}

func (a *Analyzer) innerConflicts(conflicts []*dream.Conflict) []string {
	t := a.lib.Analysis
	if len(conflicts) == 0 {
		return []string{t.NoConflicts}
	}
	var significant []*dream.Conflict
	for _, c := range conflicts {
		if c.Intensity > SignificantConflict {
			significant = append(significant, c)
		}
	}
	if len(significant) == 0 {
		return []string{t.MildConflicts}
	}
	sort.SliceStable(significant, func(i, j int) bool { return significant[i].Intensity > significant[j].Intensity })

	out := make([]string, len(significant))
	for i, c := range significant {
		text := catalog.Fill(a.lib.ConflictCommentary(c.Type), "description", c.Description)
		if c.Resolved {
			text += " " + t.ConflictResolved
		} else {
			text += " " + t.ConflictUnresolved
		}
		out[i] = text
	}
	return out
}

func (a *Analyzer) growthAreas(n *dream.Narrative) []string {
	g := a.lib.Analysis.Growth
	var out []string
	for _, c := range n.Conflicts {
		if !c.Resolved {
			out = append(out, g.Unresolved)
			break
		}
	}
	for _, sym := range n.Symbols {
		if sym.Importance > GrowthSymbol {
			out = append(out, g.Symbols)
			break
		}
	}
	if p := n.Pattern; p.Significance != "" {
		out = append(out, catalog.Fill(g.Pattern, "name", p.Name, "significance", strings.ToLower(p.Significance)))
	}
	if len(out) == 0 {
		out = append(out, g.Defaults...)
	}
	return out
}

func mostProminent(entries []dream.ContentEntry) (dream.ContentEntry, bool) {
	if len(entries) == 0 {
		return dream.ContentEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Prominence > best.Prominence {
			best = e
		}
	}
	return best, true
}

func significantElements(s *dream.Session) dream.SignificantElements {
	pick := func(in []dream.ContentEntry) []dream.ContentEntry {
		var out []dream.ContentEntry
		for _, e := range in {
			if e.Prominence > SignificantProminence {
				out = append(out, e)
			}
		}
		return out
	}
	return dream.SignificantElements{
		Settings:   pick(s.Settings),
		Characters: pick(s.Characters),
		Objects:    pick(s.Elements),
	}
}

func significantEvents(events []dream.Event) []dream.Event {
	var out []dream.Event
	for _, e := range events {
		if e.Impact > SignificantImpact || e.Type == dream.EventConflict || e.Type == dream.EventResolution {
			out = append(out, e)
			if len(out) == MaxSignificantEvents {
				break
			}
		}
	}
	return out
}
