package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talgya/dreamsim/internal/dream"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "dreams.db")
	t.Setenv("DREAMSIM_DB_PATH", path)
	t.Setenv("DREAMSIM_SEED", "")
	t.Setenv("RANDOM_ORG_API_KEY", "")
	t.Setenv("DREAMSIM_LOG_LEVEL", "error")
	return path
}

func TestSimulateThenJournal(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "simulate", "--seed=5", "--duration=60", "--type=lucid", "--user=ana")
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	for _, want := range []string{"Session ", "Summary", "Narrative", "Insights", "60 ticks"} {
		if !strings.Contains(out, want) {
			t.Errorf("simulate output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "journal")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if !strings.Contains(out, "lucid by ana") || !strings.Contains(out, "Last session:") {
		t.Errorf("journal output:\n%s", out)
	}

	out, err = execute(t, "patterns")
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if !strings.Contains(out, "Dreams recorded: 1") {
		t.Errorf("patterns output:\n%s", out)
	}
}

func TestJournalReplaysStoredSession(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "simulate", "--seed=8", "--duration=30", "--json")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	var res struct {
		Session dream.Session `json:"session"`
		Events  []dream.Event `json:"events"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, err = execute(t, "journal", "--session", res.Session.ID)
	if err != nil {
		t.Fatalf("journal --session: %v", err)
	}
	got := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "[") {
			got++
		}
	}
	if got != len(res.Events) {
		t.Errorf("replayed %d events, want %d", got, len(res.Events))
	}
	if _, err := execute(t, "journal", "--session", "missing"); err == nil {
		t.Error("unknown session should fail")
	}
}

func TestSimulateDeterministicJSON(t *testing.T) {
	setupEnv(t)
	a, err := execute(t, "simulate", "--seed=11", "--duration=45", "--json", "--no-save")
	if err != nil {
		t.Fatal(err)
	}
	b, err := execute(t, "simulate", "--seed=11", "--duration=45", "--json", "--no-save")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}
	var res struct {
		Report dream.Report `json:"report"`
	}
	if err := json.Unmarshal([]byte(a), &res); err != nil {
		t.Fatal(err)
	}
	if res.Report.Duration != 45 {
		t.Errorf("report duration = %v", res.Report.Duration)
	}
}

func TestBatch(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "batch", "--count=4", "--parallel=2", "--seed=3", "--duration=30")
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, out)
	}
	for _, want := range []string{"1st", "4th", "4 dreams", "Dreams recorded: 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("batch output missing %q:\n%s", want, out)
		}
	}
	if _, err := execute(t, "batch", "--count=0"); err == nil {
		t.Error("zero count should fail")
	}
}

func TestSymbol(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "symbol", "water")
	if err != nil {
		t.Fatalf("symbol: %v", err)
	}
	if !strings.HasPrefix(out, "water: ") {
		t.Errorf("symbol output:\n%s", out)
	}
	if _, err := execute(t, "symbol", "spaceship-xyz"); err == nil {
		t.Error("unknown symbol should fail")
	}
}

func TestConfigErrorsSurface(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "simulate", "--duration=-1", "--no-save"); err == nil {
		t.Error("negative duration should fail")
	}
	t.Setenv("DREAMSIM_API_PORT", "nope")
	if _, err := execute(t, "patterns"); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("bad env = %v", err)
	}
}
