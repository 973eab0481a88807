package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/config"
	"github.com/talgya/dreamsim/internal/persistence"
)

func testDeps(t *testing.T) *deps {
	t.Helper()
	lib, err := catalog.Load()
	if err != nil {
		t.Fatal(err)
	}
	db, err := persistence.Open(filepath.Join(t.TempDir(), "dreams.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return &deps{cfg: config.Config{Seed: 21}, lib: lib, db: db}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content blocks = %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content %T is not text", res.Content[0])
	}
	return tc.Text
}

func TestSimulateJournalAndSession(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t)

	intensity := 1.0
	res, _, err := simulateHandler(d)(ctx, nil, simulateInput{
		DreamType: "nightmare", Intensity: &intensity, Duration: 120, IncludeEvents: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	var sim struct {
		SessionID    string `json:"session_id"`
		JournalEntry string `json:"journal_entry"`
		Report       struct {
			DreamType string            `json:"dream_type"`
			Conflicts []json.RawMessage `json:"conflicts"`
		} `json:"report"`
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &sim); err != nil {
		t.Fatalf("decode simulate: %v", err)
	}
	if sim.Report.DreamType != "nightmare" || len(sim.Report.Conflicts) < 4 || len(sim.Events) == 0 {
		t.Errorf("simulate = %+v", sim)
	}

	res, _, _ = journalHandler(d)(ctx, nil, journalInput{})
	var entries []map[string]any
	if err := json.Unmarshal([]byte(text(t, res)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0]["id"] != sim.JournalEntry {
		t.Errorf("journal = %v", entries)
	}

	res, _, _ = getSessionHandler(d)(ctx, nil, getSessionInput{})
	var sess struct {
		SessionID string            `json:"session_id"`
		Events    []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &sess); err != nil {
		t.Fatal(err)
	}
	if sess.SessionID != sim.SessionID || len(sess.Events) != len(sim.Events) {
		t.Errorf("last session = %s with %d events", sess.SessionID, len(sess.Events))
	}

	res, _, _ = getSessionHandler(d)(ctx, nil, getSessionInput{SessionID: "missing"})
	if got := text(t, res); !strings.Contains(got, "no stored session") {
		t.Errorf("missing session = %q", got)
	}
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	res, _, err := simulateHandler(testDeps(t))(context.Background(), nil, simulateInput{Duration: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got := text(t, res); !strings.HasPrefix(got, "error:") {
		t.Errorf("result = %q", got)
	}
}

func TestPatternsNeedsHistory(t *testing.T) {
	ctx := context.Background()
	d := testDeps(t)
	res, _, _ := patternsHandler(d)(ctx, nil, patternsInput{})
	var p struct {
		Entries    int  `json:"entries"`
		Sufficient bool `json:"sufficient"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &p); err != nil {
		t.Fatal(err)
	}
	if p.Entries != 0 || p.Sufficient {
		t.Errorf("empty patterns = %+v", p)
	}

	for seed := int64(1); seed <= 2; seed++ {
		simulateHandler(d)(ctx, nil, simulateInput{Duration: 30, Seed: seed})
	}
	res, _, _ = patternsHandler(d)(ctx, nil, patternsInput{})
	if err := json.Unmarshal([]byte(text(t, res)), &p); err != nil {
		t.Fatal(err)
	}
	if p.Entries != 2 || !p.Sufficient {
		t.Errorf("patterns after two dreams = %+v", p)
	}
}

func TestInterpretSymbol(t *testing.T) {
	d := testDeps(t)
	res, _, _ := interpretHandler(d)(context.Background(), nil, interpretInput{Term: "water"})
	if got := text(t, res); !strings.Contains(got, `"interpretation"`) {
		t.Errorf("water = %s", got)
	}
	res, _, _ = interpretHandler(d)(context.Background(), nil, interpretInput{Term: "spaceship-xyz"})
	if got := text(t, res); !strings.HasPrefix(got, "no meaning") {
		t.Errorf("unknown = %s", got)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	if newServer(testDeps(t)) == nil {
		t.Fatal("nil server")
	}
}
