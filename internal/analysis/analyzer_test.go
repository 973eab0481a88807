package analysis

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	lib, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return New(lib)
}

func finished() *dream.Session {
	res := &dream.Resolution{Type: "confrontation", ConflictRef: "conflict-1", ConflictType: "pursuit", OccursAt: 150, Description: "You turn to face your pursuer", Satisfaction: 0.8, Triggered: true}
	return &dream.Session{
		ID:        "s-1",
		Type:      "vivid",
		Theme:     "forest",
		Intensity: 0.5,
		Duration:  180,
		State:     dream.StateCompleted,
		Settings: []dream.ContentEntry{
			{Kind: dream.KindSetting, Key: "forest", Name: "Mystical Forest", Description: "A dense forest with towering trees.", Mood: "mysterious", Role: dream.RolePrimary, Prominence: 0.9},
			{Kind: dream.KindSetting, Key: "beach", Name: "Tranquil Beach", Mood: "peaceful", Role: dream.RoleSecondary, Prominence: 0.4, EntryTime: 60},
		},
		Characters: []dream.ContentEntry{
			{Kind: dream.KindCharacter, Type: dream.TypeArchetype, Name: "The Guide", Form: "wise elder", Significance: "inner wisdom", Role: dream.RoleGuide, Prominence: 0.85, EntryTime: 36},
			{Kind: dream.KindCharacter, Name: "Stranger", Significance: "reflects the unknown", Role: dream.RoleAntagonist, Prominence: 0.5},
		},
		Elements: []dream.ContentEntry{
			{Kind: dream.KindObject, Name: "Key", Significance: "suggests access to hidden knowledge", Role: dream.RoleKey, Prominence: 0.75},
		},
		Narrative: dream.Narrative{
			Pattern: dream.Pattern{Key: "quest", Name: "Quest", Significance: "Reflects a search for meaning"},
			Stages: []dream.Stage{
				{Label: "beginning", Start: 0, End: 90, Completed: true, Events: []dream.Event{
					{Seq: 1, Type: dream.EventRevelation, Time: 20, Description: "A hidden truth surfaces", Impact: 0.9, Tone: "curiosity"},
					{Seq: 2, Type: dream.EventConflict, Time: 70, Description: "A conflict emerges: Something chases you", Impact: 0.8, Tone: "fear"},
				}},
				{Label: "resolution", Start: 90, End: 180, Completed: true, Events: []dream.Event{
					{Seq: 3, Type: dream.EventStageChange, Time: 90, Description: "The dream shifts into a new phase: resolution", Impact: 0.5, Tone: "fear"},
					{Seq: 4, Type: dream.EventResolution, Time: 150, Description: "Resolution occurs: You turn to face your pursuer", Impact: 0.7, Tone: "peace"},
					{Seq: 5, Type: dream.EventDreamLogic, Time: 180, Description: "Gravity forgets itself", Impact: 0.6, Tone: "peace"},
				}},
			},
			Arc: []dream.Keyframe{
				{Time: 0, Emotion: "curiosity", Intensity: 0.5},
				{Time: 60, Emotion: "fear", Intensity: 0.9},
				{Time: 120, Emotion: "fear", Intensity: 0.7},
				{Time: 180, Emotion: "peace", Intensity: 0.6},
			},
			Themes: []dream.Theme{
				{Name: "pursuit", Prominence: 0.6},
				{Name: "discovery", Prominence: 0.9},
				{Name: "balance", Prominence: 0.55},
				{Name: "mystery", Prominence: 0.7},
			},
			Conflicts: []*dream.Conflict{
				{ID: "conflict-1", Type: "pursuit", Description: "Something chases you", OccursAt: 70, Intensity: 0.8, ResolutionChance: 0.4, Resolved: true, Resolution: res, Triggered: true},
				{ID: "conflict-2", Type: "obstacle", Description: "A locked door", OccursAt: 100, Intensity: 0.5, ResolutionChance: 0.8, Triggered: true},
			},
			Resolutions: []*dream.Resolution{res},
			Symbols: []dream.Symbol{
				{Symbol: "forest", Meaning: "The unconscious", Source: "environment", Importance: 0.9},
				{Symbol: "key", Meaning: "Access", Source: "object", Importance: 0.75},
			},
		},
	}
}

func TestSummary(t *testing.T) {
	a := newAnalyzer(t)
	got := a.Summary(finished())
	want := "A vivid dream set in Mystical Forest. Featuring The Guide. Involved Something chases you. The dream evoked feelings of fear, curiosity, peace."
	if got != want {
		t.Errorf("Summary:\n got %q\nwant %q", got, want)
	}
}

func TestNarrative(t *testing.T) {
	a := newAnalyzer(t)
	s := finished()
	got := a.Narrative(s, s.Events())
	if !strings.HasPrefix(got, "The dream begins in Mystical Forest. A dense forest with towering trees. ") {
		t.Errorf("opening: %q", got)
	}
	paragraphs := strings.Count(got, "\n\n")
	if paragraphs != 3 {
		t.Errorf("got %d paragraphs, want 3 (windows 0, 1 and 2)", paragraphs)
	}
	if !strings.HasSuffix(got, "As the dream draws to a close, resolution occurs: you turn to face your pursuer. gravity forgets itself.") {
		t.Errorf("closing: %q", got)
	}
}

func TestNarrativeFadesOut(t *testing.T) {
	a := newAnalyzer(t)
	s := finished()
	s.Narrative.Stages[1].Events = nil
	got := a.Narrative(s, s.Events())
	if !strings.HasSuffix(got, a.lib.Analysis.FadeOut) {
		t.Errorf("want fade-out closing, got %q", got)
	}
}

func TestSymbolism(t *testing.T) {
	a := newAnalyzer(t)
	got := a.Symbolism(finished())
	want := []dream.MajorSymbol{
		{Symbol: "forest", Meaning: "The unconscious", Significance: "Appears as a environment with 90% prominence"},
		{Symbol: "key", Meaning: "Access", Significance: "Appears as a object with 75% prominence"},
	}
	if diff := cmp.Diff(want, got.MajorSymbols); diff != "" {
		t.Errorf("MajorSymbols (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.Environment, "The forest environment symbolizes") {
		t.Errorf("Environment = %q", got.Environment)
	}
	if got.Character != "The presence of The Guide (wise elder) represents inner wisdom." {
		t.Errorf("Character = %q", got.Character)
	}
	if got.Object != "The Key appearing in the dream suggests access to hidden knowledge." {
		t.Errorf("Object = %q", got.Object)
	}
	if got.Narrative != "The dream follows a Quest narrative pattern, which Reflects a search for meaning." {
		t.Errorf("Narrative = %q", got.Narrative)
	}
}

func TestSymbolismFallbacks(t *testing.T) {
	a := newAnalyzer(t)
	s := &dream.Session{Settings: []dream.ContentEntry{{Key: "odd", Name: "Glass Maze", Mood: "eerie", Role: dream.RolePrimary}}}
	got := a.Symbolism(s)
	if got.Environment != "The Glass Maze environment creates a eerie atmosphere, reflecting inner emotional states and providing a landscape for psychological exploration." {
		t.Errorf("Environment = %q", got.Environment)
	}
	if got.Character != a.lib.Analysis.NoCharacters || got.Object != a.lib.Analysis.NoObjects || got.Narrative != a.lib.Analysis.NoPattern {
		t.Errorf("empty session fallbacks = %+v", got)
	}
}

func TestInsights(t *testing.T) {
	a := newAnalyzer(t)
	got := a.Insights(finished())

	var themes []string
	for _, th := range got.PrimaryThemes {
		themes = append(themes, th.Theme)
	}
	if diff := cmp.Diff([]string{"discovery", "mystery", "pursuit"}, themes); diff != "" {
		t.Errorf("PrimaryThemes (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.EmotionalProcessing, "Fear as a dominant emotion") || !strings.HasSuffix(got.EmotionalProcessing, a.lib.Analysis.EmotionTransitions) {
		t.Errorf("EmotionalProcessing = %q", got.EmotionalProcessing)
	}
	want := []string{"The Something chases you scenario reflects dynamics of desire, avoidance, or unresolved situations requiring closure. " + a.lib.Analysis.ConflictResolved}
	if diff := cmp.Diff(want, got.InnerConflicts); diff != "" {
		t.Errorf("InnerConflicts (-want +got):\n%s", diff)
	}
	g := a.lib.Analysis.Growth
	wantGrowth := []string{g.Unresolved, g.Symbols, "The Quest pattern suggests reflects a search for meaning"}
	if diff := cmp.Diff(wantGrowth, got.GrowthAreas); diff != "" {
		t.Errorf("GrowthAreas (-want +got):\n%s", diff)
	}
}

func TestInsightsFallbacks(t *testing.T) {
	a := newAnalyzer(t)
	got := a.Insights(&dream.Session{})
	if len(got.PrimaryThemes) != 1 || got.PrimaryThemes[0].Theme != a.lib.ThemeFallback.Name {
		t.Errorf("PrimaryThemes = %+v", got.PrimaryThemes)
	}
	if diff := cmp.Diff([]string{a.lib.Analysis.NoConflicts}, got.InnerConflicts); diff != "" {
		t.Errorf("InnerConflicts:\n%s", diff)
	}
	if diff := cmp.Diff(a.lib.Analysis.Growth.Defaults, got.GrowthAreas); diff != "" {
		t.Errorf("GrowthAreas:\n%s", diff)
	}

	mild := &dream.Session{Narrative: dream.Narrative{Conflicts: []*dream.Conflict{{Type: "internal", Intensity: 0.5, Resolved: true}}}}
	if diff := cmp.Diff([]string{a.lib.Analysis.MildConflicts}, a.Insights(mild).InnerConflicts); diff != "" {
		t.Errorf("mild InnerConflicts:\n%s", diff)
	}
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(t)
	s := finished()
	r := a.Analyze(s)

	if r.SessionID != "s-1" || r.Pattern.Key != "quest" || len(r.EmotionalJourney) != 4 {
		t.Errorf("report header = %+v", r)
	}
	var seqs []uint64
	for _, e := range r.SignificantEvents {
		seqs = append(seqs, e.Seq)
	}
	if diff := cmp.Diff([]uint64{1, 2, 4}, seqs); diff != "" {
		t.Errorf("SignificantEvents (-want +got):\n%s", diff)
	}
	if len(r.Significant.Settings) != 1 || len(r.Significant.Characters) != 1 || len(r.Significant.Objects) != 1 {
		t.Errorf("Significant = %+v", r.Significant)
	}
	if len(r.Conflicts) != 2 || r.Conflicts[0].Resolution == s.Narrative.Conflicts[0].Resolution {
		t.Error("report conflicts should be copies")
	}
	if diff := cmp.Diff(r, a.Analyze(s)); diff != "" {
		t.Errorf("Analyze is not deterministic:\n%s", diff)
	}
}
