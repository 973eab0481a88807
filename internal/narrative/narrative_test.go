package narrative

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talgya/dreamsim/internal/builder"
	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
)

func compiled(t *testing.T, cfg dream.Config, seed int64) (*catalog.Library, *dream.Session) {
	t.Helper()
	lib, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	src := entropy.NewSeeded(seed)
	s, err := builder.New(lib).Build(cfg, src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := New(lib).Compile(s, src); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return lib, s
}

func TestStagesPartition(t *testing.T) {
	tests := []struct {
		labels   []string
		duration float64
		want     []float64
	}{
		{[]string{"a", "b", "c", "d"}, 480, []float64{0, 120, 240, 360, 480}},
		{[]string{"a", "b", "c"}, 100, []float64{0, 33, 66, 100}},
		{[]string{"a", "b", "c", "d", "e"}, 7, []float64{0, 1, 2, 4, 5, 7}},
		{[]string{"only"}, 60, []float64{0, 60}},
	}
	for _, tt := range tests {
		stages := Stages(tt.labels, tt.duration)
		if len(stages) != len(tt.labels) {
			t.Fatalf("got %d stages, want %d", len(stages), len(tt.labels))
		}
		var got []float64
		for i, st := range stages {
			if st.Label != tt.labels[i] {
				t.Errorf("stage %d label = %q, want %q", i, st.Label, tt.labels[i])
			}
			got = append(got, st.Start)
		}
		got = append(got, stages[len(stages)-1].End)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Stages(%d labels, %v) bounds (-want +got):\n%s", len(tt.labels), tt.duration, diff)
		}
		for i := 1; i < len(stages); i++ {
			if stages[i].Start != stages[i-1].End {
				t.Errorf("gap between stage %d and %d", i-1, i)
			}
		}
	}
	if Stages(nil, 480) != nil {
		t.Error("no labels should give no stages")
	}
}

func TestKeyframeTimes(t *testing.T) {
	got := KeyframeTimes(Keyframes, 480)
	want := []float64{0, 53, 106, 160, 213, 266, 320, 373, 426, 480}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("KeyframeTimes (-want +got):\n%s", diff)
	}
}

func TestCompileInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := dream.Config{DreamType: "vivid", Theme: "forest", Intensity: float64(seed%5) / 4, Duration: 480}
		_, s := compiled(t, cfg, seed)
		n := s.Narrative

		if len(n.Stages) == 0 || n.Stages[0].Start != 0 || n.Stages[len(n.Stages)-1].End != s.Duration {
			t.Fatalf("seed %d: stages do not cover the session: %+v", seed, n.Stages)
		}
		if len(n.Arc) != Keyframes || n.Arc[0].Time != 0 || n.Arc[Keyframes-1].Time != s.Duration {
			t.Fatalf("seed %d: arc endpoints wrong: %+v", seed, n.Arc)
		}
		for i, k := range n.Arc {
			if i > 0 && k.Time < n.Arc[i-1].Time {
				t.Errorf("seed %d: keyframes out of order at %d", seed, i)
			}
			if k.Intensity < KeyframeMin || k.Intensity > 1 {
				t.Errorf("seed %d: keyframe intensity %v", seed, k.Intensity)
			}
		}
		if c := len(n.Themes); c < MinThemes || c > MinThemes+MaxExtraThemes-1 {
			t.Errorf("seed %d: %d themes", seed, c)
		}
		if len(n.Conflicts) != ConflictCount(s.Intensity) {
			t.Errorf("seed %d: %d conflicts at intensity %v", seed, len(n.Conflicts), s.Intensity)
		}
		resolved := 0
		for _, c := range n.Conflicts {
			if c.OccursAt < 0 || c.OccursAt > ConflictWindow*s.Duration {
				t.Errorf("seed %d: %s at %v", seed, c.ID, c.OccursAt)
			}
			if c.Resolved != (c.Resolution != nil) {
				t.Errorf("seed %d: %s resolved=%v with resolution %v", seed, c.ID, c.Resolved, c.Resolution)
			}
			if c.Resolution == nil {
				continue
			}
			resolved++
			r := c.Resolution
			if r.OccursAt < c.OccursAt || r.OccursAt > s.Duration {
				t.Errorf("seed %d: resolution at %v for conflict at %v", seed, r.OccursAt, c.OccursAt)
			}
			if r.ConflictRef != c.ID || r.Description == "" {
				t.Errorf("seed %d: resolution %+v", seed, r)
			}
		}
		if resolved != len(n.Resolutions) {
			t.Errorf("seed %d: %d resolved conflicts, %d resolutions", seed, resolved, len(n.Resolutions))
		}
		if len(n.Symbols) > MaxSymbols {
			t.Errorf("seed %d: %d symbols", seed, len(n.Symbols))
		}
		for i := 1; i < len(n.Symbols); i++ {
			if n.Symbols[i].Importance > n.Symbols[i-1].Importance {
				t.Errorf("seed %d: symbols not sorted by importance", seed)
			}
		}
		if len(n.Ambience.Cues) != len(n.Stages) || n.Ambience.Key == "" {
			t.Errorf("seed %d: ambience %+v", seed, n.Ambience)
		}
	}
}

func TestCompileSharesResolutions(t *testing.T) {
	for seed := int64(1); seed < 50; seed++ {
		_, s := compiled(t, dream.Config{Intensity: 1}, seed)
		if len(s.Narrative.Resolutions) == 0 {
			continue
		}
		r := s.Narrative.Resolutions[0]
		for _, c := range s.Narrative.Conflicts {
			if c.ID == r.ConflictRef && c.Resolution != r {
				t.Fatal("conflict and resolution list should share the pointer")
			}
		}
		return
	}
	t.Fatal("no seed produced a resolution")
}

func TestCompileNightmare(t *testing.T) {
	_, s := compiled(t, dream.Config{DreamType: "nightmare", Intensity: 1}, 7)
	if len(s.Narrative.Conflicts) != 4 {
		t.Errorf("got %d conflicts at full intensity, want 4", len(s.Narrative.Conflicts))
	}
	got := s.Narrative.DominantEmotions()
	want := []string{"fear", "anxiety", "confusion", "relief"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nightmare emotions (-want +got):\n%s", diff)
	}
	if last := s.Narrative.Arc[Keyframes-1].Emotion; last != "relief" {
		t.Errorf("nightmare should end in relief, got %s", last)
	}
}

func TestCompileZeroIntensity(t *testing.T) {
	_, s := compiled(t, dream.Config{Intensity: 0}, 3)
	if len(s.Narrative.Conflicts) != 1 {
		t.Errorf("got %d conflicts at zero intensity, want 1", len(s.Narrative.Conflicts))
	}
}

func TestCompileDeterministic(t *testing.T) {
	cfg := dream.Config{DreamType: "abstract", Theme: "space", Intensity: 0.7, Duration: 240}
	_, a := compiled(t, cfg, 99)
	_, b := compiled(t, cfg, 99)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different plans:\n%s", diff)
	}
}

func TestCompileRejectsStarted(t *testing.T) {
	lib, s := compiled(t, dream.DefaultConfig(), 5)
	s.State = dream.StateRunning
	if err := New(lib).Compile(s, entropy.NewSeeded(5)); err == nil {
		t.Fatal("compiling a running session should fail")
	}
	if err := New(lib).Compile(nil, entropy.NewSeeded(5)); err == nil {
		t.Fatal("compiling nil should fail")
	}
}

func TestSymbolsUseDictionary(t *testing.T) {
	lib, s := compiled(t, dream.Config{Theme: "forest", Intensity: 1}, 12)
	for _, sym := range s.Narrative.Symbols {
		meaning, ok := lib.SymbolMeaning(sym.Symbol)
		if !ok || meaning != sym.Meaning {
			t.Errorf("symbol %q meaning %q not from dictionary", sym.Symbol, sym.Meaning)
		}
		switch sym.Source {
		case SourceEnvironment, SourceCharacter, SourceObject, SourceAction, SourceConflict:
		default:
			t.Errorf("symbol %q has source %q", sym.Symbol, sym.Source)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("A Falling-Star, over 3 Oceans!")
	want := []string{"a", "falling", "star", "over", "oceans"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"keys", "key"}, singulars("keys")); diff != "" {
		t.Errorf("singulars(keys):\n%s", diff)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, LevelLow}, {0.3, LevelLow}, {0.5, LevelMedium}, {0.7, LevelHigh}, {1, LevelHigh},
	}
	for _, tt := range tests {
		if got := Level(tt.v); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}
