package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
)

// ConflictCount returns 1 + floor(intensity*3).
func ConflictCount(intensity float64) int {
	return 1 + int(math.Floor(intensity*MaxExtraConflict))
}

func (c *Compiler) conflicts(intensity, duration float64, src entropy.Source) []*dream.Conflict {
	n := ConflictCount(intensity)
	out := make([]*dream.Conflict, 0, n)
	for i := 0; i < n; i++ {
		kind := entropy.Pick(src, c.lib.Conflicts)
		out = append(out, &dream.Conflict{
			ID:               fmt.Sprintf("conflict-%d", i+1),
			Type:             kind.Type,
			Description:      entropy.Pick(src, kind.Descriptions),
			OccursAt:         math.Floor(src.Float() * duration * ConflictWindow),
			Intensity:        entropy.Range(src, ConflictMin, 1),
			ResolutionChance: kind.ResolutionChance,
		})
	}
	return out
}

// resolutions makes the single Bernoulli decision per conflict. A resolved
// conflict and the returned list share the Resolution pointer.
func (c *Compiler) resolutions(conflicts []*dream.Conflict, duration float64, src entropy.Source) []*dream.Resolution {
	var out []*dream.Resolution
	for _, cf := range conflicts {
		if !entropy.Chance(src, cf.ResolutionChance) {
			continue
		}
		if len(c.lib.Resolutions) == 0 {
			continue
		}
		kind := entropy.Pick(src, c.lib.Resolutions)
		r := &dream.Resolution{
			Type:         kind.Type,
			ConflictRef:  cf.ID,
			ConflictType: cf.Type,
			OccursAt:     cf.OccursAt + math.Floor(src.Float()*(duration-cf.OccursAt)),
			Description:  kind.Descriptions[cf.Type],
			Satisfaction: entropy.Range(src, SatisfactionMin, 1),
		}
		cf.Resolved = true
		cf.Resolution = r
		out = append(out, r)
	}
	return out
}

func mentions(s string, terms []string) bool {
	s = strings.ToLower(s)
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
