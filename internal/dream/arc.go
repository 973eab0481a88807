package dream

// EmotionAt returns the emotional state at time t. Between two keyframes of
// the same emotion the intensity is interpolated linearly; otherwise the
// nearer keyframe wins, ties going to the earlier one.
func (n *Narrative) EmotionAt(t float64) Keyframe {
	arc := n.Arc
	if len(arc) == 0 {
		return Keyframe{Time: t}
	}
	if t <= arc[0].Time {
		return arc[0]
	}
	last := arc[len(arc)-1]
	if t >= last.Time {
		return last
	}

	before, after := arc[0], last
	for i := 0; i < len(arc)-1; i++ {
		if t >= arc[i].Time && t <= arc[i+1].Time {
			before, after = arc[i], arc[i+1]
			break
		}
	}

	if before.Time == t {
		return before
	}
	if before.Emotion != after.Emotion {
		if t-before.Time <= after.Time-t {
			return before
		}
		return after
	}
	span := after.Time - before.Time
	if span <= 0 {
		return before
	}
	ratio := (t - before.Time) / span
	return Keyframe{
		Time:      t,
		Emotion:   before.Emotion,
		Intensity: before.Intensity + (after.Intensity-before.Intensity)*ratio,
	}
}

// StageAt returns the index of the stage covering t. Boundaries belong to
// the later stage; t at or past the end maps to the last stage.
func (n *Narrative) StageAt(t float64) int {
	if len(n.Stages) == 0 {
		return 0
	}
	for i, st := range n.Stages {
		if t < st.End {
			return i
		}
	}
	return len(n.Stages) - 1
}

// DominantEmotions returns the distinct arc emotions ordered by frequency,
// ties kept in first-appearance order.
func (n *Narrative) DominantEmotions() []string {
	counts := map[string]int{}
	var order []string
	for _, k := range n.Arc {
		if counts[k.Emotion] == 0 {
			order = append(order, k.Emotion)
		}
		counts[k.Emotion]++
	}
	sorted := make([]string, len(order))
	copy(sorted, order)
	// insertion sort keeps first-appearance order among equal counts
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && counts[sorted[j]] > counts[sorted[j-1]]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}
