// Package patterns recomputes the dream-pattern profile from the whole
// journal. It never fails: short histories get the insufficient-data
// placeholders.
package patterns

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
)

// MinEntries is the history size needed for real aggregation.
const MinEntries = 2

// Track builds the profile for entries, oldest first.
func Track(lib *catalog.Library, entries []dream.JournalEntry) dream.Profile {
	t := lib.Analysis.Patterns
	p := dream.Profile{
		Entries:         len(entries),
		Sufficient:      len(entries) >= MinEntries,
		RecurringThemes: []dream.ThemeCount{},
		RecurringMotifs: []dream.ThemeCount{},
		Emotional: dream.EmotionalPattern{
			Dominant:     t.InsufficientEmotions,
			Progression:  t.InsufficientProgression,
			Significance: t.EmotionSignificance,
		},
		Characters: dream.CharacterPattern{
			Recurring:    []dream.CharacterCount{},
			Archetypes:   t.InsufficientArchetypes,
			Significance: t.CharacterSignificance,
		},
	}
	if !p.Sufficient {
		return p
	}

	themes := newCounter()
	motifs := newCounter()
	emotions := newCounter()
	names := newCounter()
	archetypes := newCounter()
	for _, e := range entries {
		themes.add(e.Theme)
		seen := map[string]bool{}
		for _, m := range e.Motifs {
			if !seen[m] {
				motifs.add(m)
				seen[m] = true
			}
		}
		for _, em := range e.Emotions {
			emotions.add(em)
		}
		seen = map[string]bool{}
		for _, c := range e.Characters {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			names.add(c.Name)
			if c.Archetype != "" {
				archetypes.add(c.Archetype)
			}
		}
	}

	for _, kv := range themes.sorted(2) {
		p.RecurringThemes = append(p.RecurringThemes, dream.ThemeCount{Theme: kv.key, Count: kv.n, Significance: t.RecurringTheme})
	}
	for _, kv := range motifs.sorted(2) {
		p.RecurringMotifs = append(p.RecurringMotifs, dream.ThemeCount{Theme: kv.key, Count: kv.n, Significance: t.RecurringTheme})
	}

	if all := emotions.sorted(1); len(all) > 0 {
		p.Emotional.Dominant = all[0].key
		for _, kv := range all {
			p.Emotional.Counts = append(p.Emotional.Counts, dream.EmotionCount{Emotion: kv.key, Count: kv.n})
		}
		first, last := dominant(entries[0].Emotions), dominant(entries[len(entries)-1].Emotions)
		if first != "" && last != "" {
			p.Emotional.Progression = catalog.Fill(t.Progression,
				"count", strconv.Itoa(len(entries)), "first", first, "last", last)
		}
	}

	for _, kv := range names.sorted(2) {
		p.Characters.Recurring = append(p.Characters.Recurring, dream.CharacterCount{Name: kv.key, Count: kv.n})
	}
	if arch := archetypes.sorted(1); len(arch) > 0 {
		for _, kv := range arch {
			p.Characters.ArchetypeSet = append(p.Characters.ArchetypeSet, dream.CharacterCount{Name: kv.key, Count: kv.n})
		}
		p.Characters.Archetypes = fmt.Sprintf("%s is the most frequent archetype, present in %d of %d dreams",
			arch[0].key, arch[0].n, len(entries))
	}
	return p
}

// dominant returns the most frequent emotion, ties to the first seen.
func dominant(emotions []string) string {
	c := newCounter()
	for _, e := range emotions {
		c.add(e)
	}
	if all := c.sorted(1); len(all) > 0 {
		return all[0].key
	}
	return ""
}

type count struct {
	key string
	n   int
}

// counter tallies keys and remembers first-appearance order.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter {
	return &counter{n: map[string]int{}}
}

func (c *counter) add(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if c.n[key] == 0 {
		c.order = append(c.order, key)
	}
	c.n[key]++
}

// sorted returns keys seen at least atLeast times, most frequent first.
func (c *counter) sorted(atLeast int) []count {
	var out []count
	for _, k := range c.order {
		if c.n[k] >= atLeast {
			out = append(out, count{key: k, n: c.n[k]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].n > out[j].n })
	return out
}
