package selector

import (
	"log/slog"
	"strings"

	"github.com/talgya/dreamsim/internal/entropy"
)

// avoided reports whether any avoided theme appears in one of fields.
func (s *Selector) avoided(fields ...string) bool {
	if len(s.avoid) == 0 {
		return false
	}
	for _, f := range fields {
		f = strings.ToLower(f)
		for _, a := range s.avoid {
			if strings.Contains(f, a) {
				return true
			}
		}
	}
	return false
}

// keep returns a fresh slice of the items passing ok. When nothing passes,
// the unfiltered items are returned instead so a pool never empties.
func keep[T any](items []T, ok func(T) bool, log *slog.Logger, what string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if ok(it) {
			out = append(out, it)
		}
	}
	if len(out) == 0 && len(items) > 0 {
		log.Info("avoid filter would empty pool, ignoring it", "pool", what)
		return append(out, items...)
	}
	return out
}

func shuffle[T any](src entropy.Source, items []T) {
	entropy.Shuffle(src, len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
