package persistence

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/talgya/dreamsim/internal/dream"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "dreams.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleEntry(i int) dream.JournalEntry {
	return dream.JournalEntry{
		ID:        fmt.Sprintf("entry-%d", i),
		SessionID: fmt.Sprintf("session-%d", i),
		UserName:  "ana",
		CreatedAt: time.Date(2026, 5, i, 8, 30, 0, 123, time.UTC),
		DreamType: "vivid",
		Theme:     "forest",
		Duration:  480,
		Pattern:   "Quest",
		Summary:   "A vivid dream set in Mystical Forest.",
		Narrative: "The dream begins in Mystical Forest.",
		Symbolism: dream.Symbolism{
			Overview:     "overview",
			MajorSymbols: []dream.MajorSymbol{{Symbol: "key", Meaning: "access", Significance: "Appears as a object with 80% prominence"}},
		},
		Insights:   dream.Insights{Overview: "insights", GrowthAreas: []string{"reflect"}},
		Emotions:   []string{"wonder", "joy"},
		Motifs:     []string{"discovery"},
		Characters: []dream.CharacterRef{{Name: "The Guide", Type: dream.TypeArchetype, Archetype: "The Guide"}},
	}
}

func TestJournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	want := sampleEntry(1)
	if err := db.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if diff := cmp.Diff([]dream.JournalEntry{want}, got); diff != "" {
		t.Errorf("All (-want +got):\n%s", diff)
	}
	if err := db.Save(ctx, want); err == nil {
		t.Error("duplicate entry id should fail")
	}
}

func TestJournalListNewest(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	for i := 1; i <= 5; i++ {
		if err := db.Save(ctx, sampleEntry(i)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"entry-4", "entry-5"}, ids); diff != "" {
		t.Errorf("List(2) (-want +got):\n%s", diff)
	}
	all, _ := db.List(ctx, 0)
	if len(all) != 5 {
		t.Errorf("List(0) returned %d entries", len(all))
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	res := &dream.Resolution{Type: "acceptance", ConflictRef: "conflict-1", OccursAt: 40, Triggered: true}
	s := &dream.Session{
		ID: "s-1", Type: "lucid", Theme: "space", Duration: 60, Elapsed: 60,
		State: dream.StateCompleted,
		Narrative: dream.Narrative{
			Stages: []dream.Stage{{Label: "beginning", End: 60, Completed: true, Events: []dream.Event{
				{Seq: 1, Type: dream.EventConflict, Time: 10, Stage: "beginning", Description: "A conflict emerges: x", Impact: 0.8, Tone: "fear"},
				{Seq: 2, Type: dream.EventResolution, Time: 40, Stage: "beginning", Description: "Resolution occurs: y", Impact: 0.6, Tone: "peace"},
			}}},
			Conflicts:   []*dream.Conflict{{ID: "conflict-1", Type: "internal", Resolved: true, Resolution: res, Triggered: true}},
			Resolutions: []*dream.Resolution{res},
		},
	}
	if err := db.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := db.SaveSession(ctx, s); err != nil {
		t.Fatalf("SaveSession again: %v", err)
	}

	got, err := db.LoadSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.Narrative.Conflicts[0].Resolution != got.Narrative.Resolutions[0] {
		t.Error("loaded conflict should share its resolution pointer")
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("LoadSession (-want +got):\n%s", diff)
	}

	events, err := db.SessionEvents(ctx, "s-1")
	if err != nil {
		t.Fatalf("SessionEvents: %v", err)
	}
	if diff := cmp.Diff(s.Events(), events); diff != "" {
		t.Errorf("SessionEvents (-want +got):\n%s", diff)
	}

	if _, err := db.LoadSession(ctx, "missing"); err == nil {
		t.Error("missing session should fail")
	}
}

func TestMeta(t *testing.T) {
	db := openTest(t)
	if err := db.SaveMeta("last_session", "s-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("last_session", "s-2"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMeta("last_session")
	if err != nil || got != "s-2" {
		t.Fatalf("GetMeta = %q, %v", got, err)
	}
}
