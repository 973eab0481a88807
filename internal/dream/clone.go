package dream

// Clone returns a deep copy. Conflicts in the copy point at the copied
// resolutions, preserving the shared-pointer layout.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Avoid = append([]string(nil), s.Avoid...)
	c.Prefer = append([]string(nil), s.Prefer...)
	c.Settings = cloneEntries(s.Settings)
	c.Characters = cloneEntries(s.Characters)
	c.Elements = cloneEntries(s.Elements)

	n := s.Narrative
	c.Narrative = Narrative{
		Pattern:  n.Pattern,
		Arc:      append([]Keyframe(nil), n.Arc...),
		Themes:   append([]Theme(nil), n.Themes...),
		Symbols:  append([]Symbol(nil), n.Symbols...),
		Ambience: n.Ambience,
	}
	c.Narrative.Pattern.Stages = append([]string(nil), n.Pattern.Stages...)
	c.Narrative.Ambience.Elements = append([]string(nil), n.Ambience.Elements...)
	c.Narrative.Ambience.Cues = append([]AmbienceCue(nil), n.Ambience.Cues...)

	if n.Stages != nil {
		c.Narrative.Stages = make([]Stage, len(n.Stages))
		for i, st := range n.Stages {
			st.Events = append([]Event(nil), st.Events...)
			c.Narrative.Stages[i] = st
		}
	}

	copied := make(map[*Resolution]*Resolution, len(n.Resolutions))
	if n.Resolutions != nil {
		c.Narrative.Resolutions = make([]*Resolution, len(n.Resolutions))
		for i, r := range n.Resolutions {
			rc := *r
			c.Narrative.Resolutions[i] = &rc
			copied[r] = &rc
		}
	}
	if n.Conflicts != nil {
		c.Narrative.Conflicts = make([]*Conflict, len(n.Conflicts))
		for i, cf := range n.Conflicts {
			cc := *cf
			if cf.Resolution != nil {
				if r, ok := copied[cf.Resolution]; ok {
					cc.Resolution = r
				} else {
					rc := *cf.Resolution
					cc.Resolution = &rc
				}
			}
			c.Narrative.Conflicts[i] = &cc
		}
	}
	return &c
}

func cloneEntries(in []ContentEntry) []ContentEntry {
	if in == nil {
		return nil
	}
	out := make([]ContentEntry, len(in))
	for i, e := range in {
		e.Elements = append([]string(nil), e.Elements...)
		e.Traits = append([]string(nil), e.Traits...)
		e.Palette = append([]string(nil), e.Palette...)
		out[i] = e
	}
	return out
}

// LinkResolutions points each resolved conflict at the matching entry of
// Resolutions. Decoding JSON yields separate copies; this restores sharing.
func (n *Narrative) LinkResolutions() {
	byRef := make(map[string]*Resolution, len(n.Resolutions))
	for _, r := range n.Resolutions {
		byRef[r.ConflictRef] = r
	}
	for _, c := range n.Conflicts {
		if r, ok := byRef[c.ID]; ok && c.Resolution != nil {
			c.Resolution = r
		}
	}
}
