package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/engine"
)

// sessionFlags are the dream configuration flags shared by run, simulate
// and batch.
type sessionFlags struct {
	dreamType string
	theme     string
	intensity float64
	duration  float64
	user      string
	avoid     []string
	prefer    []string
}

func (sf *sessionFlags) register(cmd *cobra.Command) {
	def := dream.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&sf.dreamType, "type", def.DreamType, "dream type: vivid, lucid, nightmare or abstract")
	f.StringVar(&sf.theme, "theme", def.Theme, "theme hint used to pick settings and characters")
	f.Float64Var(&sf.intensity, "intensity", def.Intensity, "intensity in [0,1]")
	f.Float64Var(&sf.duration, "duration", def.Duration, "duration in seconds")
	f.StringVar(&sf.user, "user", "", "dreamer name stored with the journal entry")
	f.StringSliceVar(&sf.avoid, "avoid", nil, "themes to keep out of the dream")
	f.StringSliceVar(&sf.prefer, "prefer", nil, "themes to try before the random fallback")
}

func (sf *sessionFlags) config() dream.Config {
	return dream.Config{
		DreamType:       sf.dreamType,
		Theme:           sf.theme,
		Intensity:       sf.intensity,
		Duration:        sf.duration,
		UserName:        sf.user,
		AvoidThemes:     sf.avoid,
		PreferredThemes: sf.prefer,
	}
}

func printPlan(w io.Writer, s *dream.Session) {
	primary, _ := s.PrimarySetting()
	fmt.Fprintf(w, "Session %s\n", s.ID)
	fmt.Fprintf(w, "  %s dream, theme %q, intensity %.2f, %s\n", s.Type, s.Theme, s.Intensity, engine.Clock(s.Duration))
	fmt.Fprintf(w, "  setting:  %s\n", primary.Name)
	fmt.Fprintf(w, "  pattern:  %s (%d stages)\n", s.Narrative.Pattern.Name, len(s.Narrative.Stages))
	fmt.Fprintf(w, "  cast:     %s\n", names(s.Characters))
	fmt.Fprintf(w, "  objects:  %s\n", names(s.Elements))
	fmt.Fprintf(w, "  tension:  %d conflicts, %d resolutions\n", len(s.Narrative.Conflicts), len(s.Narrative.Resolutions))
}

func printEvent(w io.Writer, e dream.Event) {
	fmt.Fprintf(w, "[%s] %-22s %s\n", engine.Clock(e.Time), e.Type, e.Description)
}

func printReport(w io.Writer, r dream.Report) {
	fmt.Fprintf(w, "\nSummary\n  %s\n", r.Summary)
	fmt.Fprintf(w, "\nNarrative\n")
	for _, p := range strings.Split(r.Narrative, "\n\n") {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintf(w, "\nSymbolism\n  %s\n", r.Symbolism.Overview)
	for _, m := range r.Symbolism.MajorSymbols {
		fmt.Fprintf(w, "  - %s: %s\n", m.Symbol, m.Meaning)
	}
	fmt.Fprintf(w, "\nInsights\n  %s\n", r.Insights.Overview)
	for _, g := range r.Insights.GrowthAreas {
		fmt.Fprintf(w, "  - %s\n", g)
	}
}

func printProfile(w io.Writer, p dream.Profile) {
	fmt.Fprintf(w, "Dreams recorded: %s\n", humanize.Comma(int64(p.Entries)))
	if len(p.RecurringThemes) > 0 {
		fmt.Fprintf(w, "Recurring themes:\n")
		for _, t := range p.RecurringThemes {
			fmt.Fprintf(w, "  %-20s %s\n", t.Theme, times(t.Count))
		}
	}
	if len(p.RecurringMotifs) > 0 {
		fmt.Fprintf(w, "Recurring motifs:\n")
		for _, t := range p.RecurringMotifs {
			fmt.Fprintf(w, "  %-20s %s\n", t.Theme, times(t.Count))
		}
	}
	fmt.Fprintf(w, "Emotions: %s\n", p.Emotional.Progression)
	if p.Emotional.Significance != "" {
		fmt.Fprintf(w, "  %s\n", p.Emotional.Significance)
	}
	fmt.Fprintf(w, "Characters: %s\n", p.Characters.Archetypes)
	for _, c := range p.Characters.Recurring {
		fmt.Fprintf(w, "  %-20s %s\n", c.Name, times(c.Count))
	}
}

func names(entries []dream.ContentEntry) string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return strings.Join(out, ", ")
}

func times(n int) string {
	if n == 1 {
		return "once"
	}
	return humanize.Comma(int64(n)) + " times"
}
