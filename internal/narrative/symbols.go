package narrative

import (
	"sort"
	"strings"
	"unicode"

	"github.com/talgya/dreamsim/internal/dream"
)

// Symbol sources.
const (
	SourceEnvironment = "environment"
	SourceCharacter   = "character"
	SourceObject      = "object"
	SourceAction      = "action"
	SourceConflict    = "conflict"
)

type symbolScan struct {
	c     *Compiler
	found []dream.Symbol
	index map[string]int
}

// symbols scans every placed entry and conflict description against the
// symbol dictionary and keeps the most important distinct matches.
func (c *Compiler) symbols(s *dream.Session, conflicts []*dream.Conflict) []dream.Symbol {
	scan := &symbolScan{c: c, index: map[string]int{}}
	for _, st := range s.Settings {
		scan.phrase(st.Key, SourceEnvironment, st.Prominence)
		scan.phrase(st.Name, SourceEnvironment, st.Prominence)
		for _, el := range st.Elements {
			scan.phrase(el, SourceEnvironment, st.Prominence)
		}
	}
	for _, ch := range s.Characters {
		scan.phrase(ch.Name, SourceCharacter, ch.Prominence)
		scan.phrase(ch.Form, SourceCharacter, ch.Prominence)
	}
	for _, el := range s.Elements {
		scan.phrase(el.Name, SourceObject, el.Prominence)
	}
	for _, cf := range conflicts {
		scan.phrase(cf.Description, SourceConflict, cf.Intensity)
	}

	out := scan.found
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	if len(out) > MaxSymbols {
		out = out[:MaxSymbols]
	}
	return out
}

// phrase tries the whole phrase first, then each word with simple plural
// stripping.
func (sc *symbolScan) phrase(text, source string, importance float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if sc.add(text, source, importance) {
		return
	}
	for _, w := range Tokenize(text) {
		for _, form := range singulars(w) {
			if sc.add(form, source, importance) {
				break
			}
		}
	}
}

func (sc *symbolScan) add(term, source string, importance float64) bool {
	lib := sc.c.lib
	meaning, ok := lib.SymbolMeaning(term)
	if !ok {
		return false
	}
	key := strings.ToLower(term)
	if source == SourceConflict {
		if cat, _ := lib.SymbolCategory(term); cat == "actions" {
			source = SourceAction
		}
	}
	if i, seen := sc.index[key]; seen {
		if importance > sc.found[i].Importance {
			sc.found[i].Importance = importance
			sc.found[i].Source = source
		}
		return true
	}
	sc.index[key] = len(sc.found)
	sc.found = append(sc.found, dream.Symbol{Symbol: key, Meaning: meaning, Source: source, Importance: importance})
	return true
}

// Tokenize lowercases text and splits it into letter runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
}

func singulars(w string) []string {
	forms := []string{w}
	if strings.HasSuffix(w, "es") && len(w) > 3 {
		forms = append(forms, strings.TrimSuffix(w, "es"))
	}
	if strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 2 {
		forms = append(forms, strings.TrimSuffix(w, "s"))
	}
	return forms
}
