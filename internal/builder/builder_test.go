package builder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	lib, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return New(lib)
}

func TestBuildSkeleton(t *testing.T) {
	b := newBuilder(t)
	cfg := dream.DefaultConfig()
	cfg.Theme = "beach"
	cfg.UserName = "sam"

	s, err := b.Build(cfg, entropy.NewSeeded(11))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("session id %q is not a uuid: %v", s.ID, err)
	}
	if s.State != dream.StateIdle || s.Active {
		t.Errorf("new session should be idle, got state=%s active=%v", s.State, s.Active)
	}
	if s.Settings[0].Key != "beach" || s.Settings[0].EntryTime != 0 {
		t.Errorf("primary setting = %+v", s.Settings[0])
	}
	if n := len(s.Settings); n < 2 || n > 4 {
		t.Errorf("got %d settings, want 2-4", n)
	}
	for _, st := range s.Settings[1:] {
		if st.EntryTime < 0 || st.EntryTime > 480*SecondaryWindow {
			t.Errorf("secondary %s entry %v outside [0, %v]", st.Key, st.EntryTime, 480*SecondaryWindow)
		}
	}
	if g := s.Characters[0]; g.Role != dream.RoleGuide || g.EntryTime != 96 {
		t.Errorf("guide = %+v, want entry at 96s", g)
	}
	var placed []dream.ContentEntry
	placed = append(placed, s.Characters[1:]...)
	placed = append(placed, s.Elements...)
	for _, c := range placed {
		if c.EntryTime < 0 || c.EntryTime > 480 {
			t.Errorf("%s entry %v outside [0, 480]", c.Name, c.EntryTime)
		}
	}
	if len(s.Characters) != 4 || len(s.Elements) != 6 {
		t.Errorf("half intensity: %d characters, %d objects; want 4 and 6", len(s.Characters), len(s.Elements))
	}
}

func TestBuildZeroIntensity(t *testing.T) {
	b := newBuilder(t)
	cfg := dream.DefaultConfig()
	cfg.Intensity = 0
	s, err := b.Build(cfg, entropy.NewSeeded(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Characters) != 2 || len(s.Elements) != 3 {
		t.Fatalf("zero intensity: %d characters, %d objects; want 2 and 3", len(s.Characters), len(s.Elements))
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := newBuilder(t)
	cfg := dream.Config{DreamType: "lucid", Theme: "space", Intensity: 0.8, Duration: 300}
	a, err := b.Build(cfg, entropy.NewSeeded(42))
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.Build(cfg, entropy.NewSeeded(42))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, c); diff != "" {
		t.Fatalf("same seed produced different skeletons:\n%s", diff)
	}
	d, err := b.Build(cfg, entropy.NewSeeded(43))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == d.ID {
		t.Error("different seeds should give different ids")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(dream.Config{Duration: -5}, entropy.NewSeeded(1))
	if !errors.Is(err, dream.ErrInvalidConfig) {
		t.Fatalf("Build error = %v, want ErrInvalidConfig", err)
	}
}
