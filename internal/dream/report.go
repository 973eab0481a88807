package dream

import "time"

// MajorSymbol is a symbol singled out in the symbolism analysis.
type MajorSymbol struct {
	Symbol       string `json:"symbol"`
	Meaning      string `json:"meaning"`
	Significance string `json:"significance"`
}

// Symbolism is the symbolism section of a report.
type Symbolism struct {
	Overview     string        `json:"overview"`
	MajorSymbols []MajorSymbol `json:"major_symbols"`
	Environment  string        `json:"environment"`
	Character    string        `json:"character"`
	Object       string        `json:"object"`
	Narrative    string        `json:"narrative"`
}

// ThemeInsight is commentary on one dominant theme.
type ThemeInsight struct {
	Theme    string `json:"theme"`
	Analysis string `json:"analysis"`
}

// Insights is the psychological section of a report.
type Insights struct {
	Overview            string         `json:"overview"`
	PrimaryThemes       []ThemeInsight `json:"primary_themes"`
	EmotionalProcessing string         `json:"emotional_processing"`
	InnerConflicts      []string       `json:"inner_conflicts"`
	GrowthAreas         []string       `json:"growth_areas"`
}

// SignificantElements lists content with prominence above 0.6.
type SignificantElements struct {
	Settings   []ContentEntry `json:"settings"`
	Characters []ContentEntry `json:"characters"`
	Objects    []ContentEntry `json:"objects"`
}

// Report is the analyzer's output for one finished session.
type Report struct {
	SessionID         string              `json:"session_id"`
	DreamType         string              `json:"dream_type"`
	Theme             string              `json:"theme"`
	Duration          float64             `json:"duration"`
	Summary           string              `json:"summary"`
	Narrative         string              `json:"narrative"`
	Symbolism         Symbolism           `json:"symbolism"`
	Insights          Insights            `json:"insights"`
	EmotionalJourney  []Keyframe          `json:"emotional_journey"`
	Significant       SignificantElements `json:"significant_elements"`
	SignificantEvents []Event             `json:"significant_events"`
	Conflicts         []Conflict          `json:"conflicts"`
	Resolutions       []Resolution        `json:"resolutions"`
	Pattern           Pattern             `json:"narrative_pattern"`
}

// CharacterRef identifies a character in a journal entry.
type CharacterRef struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Archetype string `json:"archetype,omitempty"`
}

// JournalEntry is the stored record of one finished session. It is never
// mutated after creation.
type JournalEntry struct {
	ID         string         `json:"id" db:"id"`
	SessionID  string         `json:"session_id" db:"session_id"`
	UserName   string         `json:"user_name,omitempty" db:"user_name"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	DreamType  string         `json:"dream_type" db:"dream_type"`
	Theme      string         `json:"theme" db:"theme"`
	Duration   float64        `json:"duration" db:"duration"`
	Pattern    string         `json:"pattern" db:"pattern"`
	Summary    string         `json:"summary" db:"summary"`
	Narrative  string         `json:"narrative" db:"narrative"`
	Symbolism  Symbolism      `json:"symbolism" db:"-"`
	Insights   Insights       `json:"insights" db:"-"`
	Emotions   []string       `json:"emotions" db:"-"`
	Motifs     []string       `json:"motifs" db:"-"`
	Characters []CharacterRef `json:"characters" db:"-"`
}

// ThemeCount is a recurring theme or motif with its occurrence count.
type ThemeCount struct {
	Theme        string `json:"theme"`
	Count        int    `json:"count"`
	Significance string `json:"significance"`
}

// EmotionCount is how many keyframes across all entries carried an emotion.
type EmotionCount struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
}

// EmotionalPattern summarizes emotions across the journal.
type EmotionalPattern struct {
	Dominant     string         `json:"dominant"`
	Counts       []EmotionCount `json:"counts,omitempty"`
	Progression  string         `json:"progression"`
	Significance string         `json:"significance"`
}

// CharacterCount is a recurring character name or archetype.
type CharacterCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CharacterPattern summarizes characters across the journal.
type CharacterPattern struct {
	Recurring    []CharacterCount `json:"recurring"`
	Archetypes   string           `json:"archetypes"`
	ArchetypeSet []CharacterCount `json:"archetype_counts,omitempty"`
	Significance string           `json:"significance"`
}

// Profile is recomputed from the whole journal after each completed session.
type Profile struct {
	Entries         int              `json:"entries"`
	Sufficient      bool             `json:"sufficient"`
	RecurringThemes []ThemeCount     `json:"recurring_themes"`
	RecurringMotifs []ThemeCount     `json:"recurring_motifs"`
	Emotional       EmotionalPattern `json:"emotional_patterns"`
	Characters      CharacterPattern `json:"character_patterns"`
}
