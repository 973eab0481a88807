// Package journal records finished dream sessions. The Store interface is
// implemented in memory here and on SQLite by the persistence package.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/talgya/dreamsim/internal/dream"
)

// DefaultLimit is the number of entries List returns when limit <= 0.
const DefaultLimit = 10

// Store keeps journal entries. Entries are append-only.
type Store interface {
	// Save appends one entry.
	Save(ctx context.Context, e dream.JournalEntry) error
	// List returns the most recent limit entries, oldest first.
	List(ctx context.Context, limit int) ([]dream.JournalEntry, error)
	// All returns every entry, oldest first.
	All(ctx context.Context) ([]dream.JournalEntry, error)
}

// NewEntry builds the journal record of a naturally completed session.
func NewEntry(id string, s *dream.Session, r dream.Report, createdAt time.Time) dream.JournalEntry {
	e := dream.JournalEntry{
		ID:        id,
		SessionID: s.ID,
		UserName:  s.UserName,
		CreatedAt: createdAt.UTC(),
		DreamType: s.Type,
		Theme:     s.Theme,
		Duration:  s.Duration,
		Pattern:   s.Narrative.Pattern.Name,
		Summary:   r.Summary,
		Narrative: r.Narrative,
		Symbolism: r.Symbolism,
		Insights:  r.Insights,
		Emotions:  s.ArcEmotions(),
	}
	for _, th := range s.Narrative.Themes {
		e.Motifs = append(e.Motifs, th.Name)
	}
	for _, c := range s.Characters {
		ref := dream.CharacterRef{Name: c.Name, Type: c.Type}
		if c.Type == dream.TypeArchetype {
			ref.Archetype = c.Name
		}
		e.Characters = append(e.Characters, ref)
	}
	return e
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries []dream.JournalEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save appends e.
func (m *Memory) Save(_ context.Context, e dream.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// List returns the last limit entries.
func (m *Memory) List(_ context.Context, limit int) ([]dream.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Tail(m.entries, limit), nil
}

// All returns a copy of every entry.
func (m *Memory) All(_ context.Context) ([]dream.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]dream.JournalEntry(nil), m.entries...), nil
}

// Tail copies the last limit entries of all, applying DefaultLimit.
func Tail(all []dream.JournalEntry, limit int) []dream.JournalEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > len(all) {
		limit = len(all)
	}
	return append([]dream.JournalEntry(nil), all[len(all)-limit:]...)
}
