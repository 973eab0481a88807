// dream-mcp exposes the dream simulator as an MCP stdio server.
//
// Environment variables:
//
//	DREAMSIM_DB_PATH    SQLite journal path (default: data/dreams.db)
//	DREAMSIM_SEED       fixed random seed (default: non-deterministic)
//	RANDOM_ORG_API_KEY  optional true-random source
//
// Usage:
//
//	go install github.com/talgya/dreamsim/cmd/dream-mcp
//	dream-mcp
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/config"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/engine"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/journal"
	"github.com/talgya/dreamsim/internal/patterns"
	"github.com/talgya/dreamsim/internal/persistence"
)

// version is set at build time via -ldflags.
var version = "dev"

// deps is what the tool handlers share.
type deps struct {
	cfg config.Config
	lib *catalog.Library
	db  *persistence.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("dream-mcp: %v", err)
	}
	cfg.InitLogging()

	lib, err := catalog.Load()
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer db.Close()

	server := newServer(&deps{cfg: cfg, lib: lib, db: db})
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("dream-mcp: %v", err)
	}
}

func newServer(d *deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dream-mcp",
		Version: version,
	}, nil)

	// --- Tool: interpret_symbol ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "interpret_symbol",
		Description: "Look a dream symbol up in the dictionary. Returns its meaning plus contextual, cultural and psychological readings when known.",
	}, interpretHandler(d))

	// --- Tool: simulate_dream ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_dream",
		Description: "Build, play and analyze a whole dream session instantly on virtual time. The result is recorded in the dream journal.",
	}, simulateHandler(d))

	// --- Tool: journal ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "journal",
		Description: "List the most recent dream journal entries, oldest first.",
	}, journalHandler(d))

	// --- Tool: dream_patterns ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "dream_patterns",
		Description: "Recurring themes, motifs, emotions and characters across the whole journal. Needs at least two dreams.",
	}, patternsHandler(d))

	// --- Tool: get_session ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Retrieve a stored session and its event log. If no session_id is given, returns the most recent one.",
	}, getSessionHandler(d))

	return server
}

// --- Input types ---

type interpretInput struct {
	Term string `json:"term" jsonschema:"Symbol to look up, e.g. water or key"`
}

type simulateInput struct {
	DreamType       string   `json:"dream_type,omitempty"       jsonschema:"vivid, lucid, nightmare or abstract (default vivid)"`
	Theme           string   `json:"theme,omitempty"            jsonschema:"Theme hint such as forest, ocean or space (default adventure)"`
	Intensity       *float64 `json:"intensity,omitempty"        jsonschema:"Intensity 0.0-1.0 (default 0.5)"`
	Duration        float64  `json:"duration,omitempty"         jsonschema:"Duration in seconds (default 480)"`
	UserName        string   `json:"user_name,omitempty"        jsonschema:"Dreamer name stored with the journal entry"`
	AvoidThemes     []string `json:"avoid_themes,omitempty"     jsonschema:"Themes to keep out of the dream"`
	PreferredThemes []string `json:"preferred_themes,omitempty" jsonschema:"Themes to try before the random fallback"`
	Seed            int64    `json:"seed,omitempty"             jsonschema:"Optional seed for a reproducible dream"`
	IncludeEvents   bool     `json:"include_events,omitempty"   jsonschema:"Also return the full event log"`
}

type journalInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max entries to return (default 10)"`
}

type patternsInput struct{}

type getSessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Stored session ID. If empty, returns the last recorded session."`
}

// --- Handlers ---

func interpretHandler(d *deps) func(context.Context, *mcp.CallToolRequest, interpretInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input interpretInput) (*mcp.CallToolResult, any, error) {
		meaning, ok := d.lib.SymbolMeaning(input.Term)
		if !ok {
			return textResult(fmt.Sprintf("no meaning recorded for %q", input.Term)), nil, nil
		}
		out := map[string]any{"term": input.Term, "meaning": meaning}
		if in, ok := d.lib.Interpretation(input.Term); ok {
			out["interpretation"] = in
		}
		return textResult(jsonString(out)), nil, nil
	}
}

func simulateHandler(d *deps) func(context.Context, *mcp.CallToolRequest, simulateInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input simulateInput) (*mcp.CallToolResult, any, error) {
		cfg := dream.DefaultConfig()
		if input.DreamType != "" {
			cfg.DreamType = input.DreamType
		}
		if input.Theme != "" {
			cfg.Theme = input.Theme
		}
		if input.Intensity != nil {
			cfg.Intensity = *input.Intensity
		}
		cfg.Duration = input.Duration
		cfg.UserName = input.UserName
		cfg.AvoidThemes = input.AvoidThemes
		cfg.PreferredThemes = input.PreferredThemes

		var src entropy.Source = d.cfg.Source(input.Seed)
		vc := &engine.VirtualClock{}
		completed := make(chan engine.Completion, 1)
		dir := engine.NewDirector(d.lib,
			engine.WithClock(vc),
			engine.WithManualTicks(),
			engine.WithSource(src),
			engine.WithStore(d.db),
			engine.OnComplete(func(c engine.Completion) { completed <- c }),
		)
		if _, err := dir.Configure(cfg); err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		dir.Start()
		engine.FastForward(dir, vc)
		c := <-completed

		if err := d.db.SaveSession(ctx, c.Session); err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		if err := d.db.SaveMeta("last_session", c.Session.ID); err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}

		out := map[string]any{
			"session_id":    c.Session.ID,
			"journal_entry": c.Entry.ID,
			"report":        c.Report,
		}
		if input.IncludeEvents {
			out["events"] = dir.EventsSince(0)
		}
		return textResult(jsonString(out)), nil, nil
	}
}

func journalHandler(d *deps) func(context.Context, *mcp.CallToolRequest, journalInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input journalInput) (*mcp.CallToolResult, any, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = journal.DefaultLimit
		}
		entries, err := d.db.List(ctx, limit)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		out := make([]map[string]any, len(entries))
		for i, e := range entries {
			out[i] = entryToMap(e)
		}
		return textResult(jsonString(out)), nil, nil
	}
}

func patternsHandler(d *deps) func(context.Context, *mcp.CallToolRequest, patternsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ patternsInput) (*mcp.CallToolResult, any, error) {
		entries, err := d.db.All(ctx)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(patterns.Track(d.lib, entries))), nil, nil
	}
}

func getSessionHandler(d *deps) func(context.Context, *mcp.CallToolRequest, getSessionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input getSessionInput) (*mcp.CallToolResult, any, error) {
		id := input.SessionID
		if id == "" {
			last, err := d.db.GetMeta("last_session")
			if err != nil {
				return textResult("no sessions recorded yet"), nil, nil
			}
			id = last
		}
		s, err := d.db.LoadSession(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return textResult(fmt.Sprintf("no stored session %q", id)), nil, nil
		}
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		events, err := d.db.SessionEvents(ctx, id)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		primary, _ := s.PrimarySetting()
		return textResult(jsonString(map[string]any{
			"session_id":  s.ID,
			"dream_type":  s.Type,
			"theme":       s.Theme,
			"setting":     primary.Name,
			"pattern":     s.Narrative.Pattern.Name,
			"state":       s.State,
			"ended_early": s.EndedEarly,
			"elapsed":     s.Elapsed,
			"duration":    s.Duration,
			"events":      events,
		})), nil, nil
	}
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func entryToMap(e dream.JournalEntry) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"session_id": e.SessionID,
		"created_at": e.CreatedAt,
		"dream_type": e.DreamType,
		"theme":      e.Theme,
		"pattern":    e.Pattern,
		"summary":    e.Summary,
		"emotions":   e.Emotions,
		"motifs":     e.Motifs,
	}
}

func jsonString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal: %v"}`, err)
	}
	return string(data)
}
