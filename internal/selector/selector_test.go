package selector

import (
	"strings"
	"testing"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
)

func testLibrary(t *testing.T) *catalog.Library {
	t.Helper()
	lib, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return lib
}

func TestSettingMatching(t *testing.T) {
	lib := testLibrary(t)
	tests := []struct {
		theme string
		want  string
	}{
		{"forest", "forest"},
		{"DESERT", "desert"},
		{"coral", "coralReef"},
		{"a trip to the mountains", "mountains"},
		{"moonscape", "moonscape"},
	}
	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			got := New(lib, entropy.NewSeeded(1)).Setting(tt.theme)
			if got.Key != tt.want {
				t.Fatalf("Setting(%q) = %q, want %q", tt.theme, got.Key, tt.want)
			}
			if got.Role != dream.RolePrimary || got.Prominence < 0.8 || got.Prominence >= 1.0 {
				t.Errorf("primary entry = %+v", got)
			}
		})
	}
}

func TestSettingFallbackNeverFails(t *testing.T) {
	lib := testLibrary(t)
	for seed := int64(0); seed < 50; seed++ {
		got := New(lib, entropy.NewSeeded(seed)).Setting("totally-unknown-theme-xyz")
		if got.Key == "" || got.Name == "" {
			t.Fatalf("seed %d: fallback returned empty entry %+v", seed, got)
		}
	}
	if got := New(lib, entropy.NewSeeded(3)).Setting(""); got.Key == "" {
		t.Fatal("empty theme should still yield a setting")
	}
}

func TestSettingPreferredThemes(t *testing.T) {
	lib := testLibrary(t)
	sel := New(lib, entropy.NewSeeded(1), WithPreferences(nil, []string{"nothing-here", "subway"}))
	if got := sel.Setting("zzz"); got.Key != "subwaySystem" {
		t.Fatalf("preferred theme should win over random fallback, got %q", got.Key)
	}
}

func TestSettingAvoidThemes(t *testing.T) {
	lib := testLibrary(t)
	sel := New(lib, entropy.NewSeeded(1), WithPreferences([]string{"forest"}, nil))
	for i := 0; i < 30; i++ {
		got := sel.Setting("forest")
		if strings.Contains(strings.ToLower(got.Name+" "+got.Key+" "+strings.Join(got.Elements, " ")), "forest") {
			t.Fatalf("avoided theme selected: %+v", got)
		}
	}

	everything := New(lib, entropy.NewSeeded(1), WithPreferences([]string{"a", "e", "i", "o", "u"}, nil))
	if got := everything.Setting("forest"); got.Key != "forest" {
		t.Fatalf("an avoid list that empties the pool should be ignored, got %q", got.Key)
	}
}

func TestSecondarySettings(t *testing.T) {
	lib := testLibrary(t)
	for seed := int64(0); seed < 30; seed++ {
		got := New(lib, entropy.NewSeeded(seed)).SecondarySettings("forest")
		if len(got) < 1 || len(got) > 3 {
			t.Fatalf("seed %d: %d secondary settings", seed, len(got))
		}
		seen := map[string]bool{}
		for _, s := range got {
			if s.Key == "forest" || seen[s.Key] {
				t.Fatalf("seed %d: repeated or primary setting %q", seed, s.Key)
			}
			seen[s.Key] = true
			if s.Role != dream.RoleSecondary || s.Prominence < 0.3 || s.Prominence >= 0.8 {
				t.Errorf("secondary entry = %+v", s)
			}
		}
	}
}

func TestCounts(t *testing.T) {
	tests := []struct {
		intensity  float64
		characters int
		objects    int
	}{
		{0, 2, 3},
		{0.5, 4, 6},
		{1, 7, 10},
	}
	for _, tt := range tests {
		if got := CharacterCount(tt.intensity, 100); got != tt.characters {
			t.Errorf("CharacterCount(%v) = %d, want %d", tt.intensity, got, tt.characters)
		}
		if got := ObjectCount(tt.intensity, 100); got != tt.objects {
			t.Errorf("ObjectCount(%v) = %d, want %d", tt.intensity, got, tt.objects)
		}
	}
	if got := ObjectCount(1, 4); got != 4 {
		t.Errorf("ObjectCount should clamp to catalog size, got %d", got)
	}
}

func TestCharacters(t *testing.T) {
	lib := testLibrary(t)
	got := New(lib, entropy.NewSeeded(5)).Characters(1)
	if len(got) != 7 {
		t.Fatalf("got %d characters, want 7", len(got))
	}
	guide := got[0]
	if guide.Role != dream.RoleGuide || guide.Type != dream.TypeArchetype || guide.Form == "" {
		t.Errorf("first character should be an archetype guide, got %+v", guide)
	}
	if guide.Prominence < 0.7 || guide.Prominence >= 1.0 {
		t.Errorf("guide prominence %v outside [0.7, 1.0)", guide.Prominence)
	}
	if got[1].Role != dream.RoleAntagonist {
		t.Errorf("second character role = %q, want antagonist", got[1].Role)
	}
	for _, c := range got[1:] {
		if c.Prominence < 0.3 || c.Prominence >= 0.9 {
			t.Errorf("%s prominence %v outside [0.3, 0.9)", c.Name, c.Prominence)
		}
		if c.Kind != dream.KindCharacter || c.Significance == "" {
			t.Errorf("character entry incomplete: %+v", c)
		}
	}
}

func TestObjects(t *testing.T) {
	lib := testLibrary(t)
	got := New(lib, entropy.NewSeeded(9)).Objects(0)
	if len(got) != 3 {
		t.Fatalf("got %d objects, want 3", len(got))
	}
	for i, o := range got {
		if i < 2 {
			if o.Role != dream.RoleKey || o.Prominence < 0.7 {
				t.Errorf("object %d should be key, got %+v", i, o)
			}
			continue
		}
		if o.Role != dream.RoleSupporting || o.Prominence < 0.2 || o.Prominence >= 0.7 {
			t.Errorf("object %d should be supporting, got %+v", i, o)
		}
	}
}

func TestPatternByDreamType(t *testing.T) {
	lib := testLibrary(t)
	allowed := map[string][]string{
		"vivid":     {"journeys", "revelations"},
		"lucid":     {"transformations", "revelations"},
		"nightmare": {"challenges", "relationships"},
		"abstract":  {"transformations", "revelations"},
	}
	for dt, cats := range allowed {
		for seed := int64(0); seed < 20; seed++ {
			p := New(lib, entropy.NewSeeded(seed)).Pattern(dt)
			if p.Category != cats[0] && p.Category != cats[1] {
				t.Fatalf("%s seed %d: category %q not in %v", dt, seed, p.Category, cats)
			}
			if len(p.Stages) == 0 || p.Significance == "" {
				t.Fatalf("%s: incomplete pattern %+v", dt, p)
			}
		}
	}
	if p := New(lib, entropy.NewSeeded(1)).Pattern("daydream"); p.Key == "" {
		t.Fatal("unknown dream type should still yield a pattern")
	}
}

func TestSoundscape(t *testing.T) {
	lib := testLibrary(t)
	sel := New(lib, entropy.NewSeeded(1))
	tests := []struct{ key, want string }{
		{"forest", "forest"},
		{"desert_wind", "desert"},
		{"deep_sea", "dreamlike"},
		{"", "dreamlike"},
	}
	for _, tt := range tests {
		if got := sel.Soundscape(tt.key); got.Key != tt.want {
			t.Errorf("Soundscape(%q) = %q, want %q", tt.key, got.Key, tt.want)
		}
	}
}
