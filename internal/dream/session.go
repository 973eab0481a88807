// Package dream defines the data model shared by the generator, the clock
// and the analyzer: the session plan, its runtime fields and the records
// derived from a finished session. Times are seconds from session start.
package dream

import "sort"

// ContentKind distinguishes the three kinds of content entry.
type ContentKind string

const (
	KindSetting   ContentKind = "setting"
	KindCharacter ContentKind = "character"
	KindObject    ContentKind = "object"
)

// Roles assigned by the session builder.
const (
	RolePrimary    = "primary"
	RoleSecondary  = "secondary"
	RoleGuide      = "guide"
	RoleAntagonist = "antagonist"
	RoleSupporting = "supporting"
	RoleKey        = "key"
)

// TypeArchetype marks a character drawn from the archetype table.
const TypeArchetype = "archetype"

// ContentEntry is a setting, character or object placed in a session.
// It is immutable once the builder has assigned it.
type ContentEntry struct {
	Kind         ContentKind `json:"kind"`
	Type         string      `json:"type,omitempty"`
	Category     string      `json:"category"`
	Key          string      `json:"key,omitempty"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Mood         string      `json:"mood,omitempty"`
	Role         string      `json:"role"`
	Form         string      `json:"form,omitempty"`
	Significance string      `json:"significance,omitempty"`
	Elements     []string    `json:"elements,omitempty"`
	Traits       []string    `json:"traits,omitempty"`
	Soundscape   string      `json:"soundscape,omitempty"`
	Palette      []string    `json:"palette,omitempty"`
	Prominence   float64     `json:"prominence"`
	EntryTime    float64     `json:"entry_time"`
}

// Pattern is the narrative template a session follows.
type Pattern struct {
	Category     string   `json:"category"`
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Stages       []string `json:"stages"`
	Significance string   `json:"significance"`
}

// Stage is one contiguous slice of the session timeline.
type Stage struct {
	Label     string  `json:"label"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Completed bool    `json:"completed"`
	Events    []Event `json:"events"`
}

// Keyframe is one point of the emotional arc.
type Keyframe struct {
	Time      float64 `json:"time"`
	Emotion   string  `json:"emotion"`
	Intensity float64 `json:"intensity"`
}

// Conflict is a scheduled narrative tension.
type Conflict struct {
	ID               string      `json:"id"`
	Type             string      `json:"type"`
	Description      string      `json:"description"`
	OccursAt         float64     `json:"occurs_at"`
	Intensity        float64     `json:"intensity"`
	ResolutionChance float64     `json:"resolution_chance"`
	Resolved         bool        `json:"resolved"`
	Resolution       *Resolution `json:"resolution"`
	Triggered        bool        `json:"triggered"`
}

// Resolution is the scheduled resolution of one conflict. A conflict and
// the narrative's resolution list share the same *Resolution.
type Resolution struct {
	Type         string  `json:"type"`
	ConflictRef  string  `json:"conflict_ref"`
	ConflictType string  `json:"conflict_type"`
	OccursAt     float64 `json:"occurs_at"`
	Description  string  `json:"description"`
	Satisfaction float64 `json:"satisfaction"`
	Triggered    bool    `json:"triggered"`
}

// EventType names the kind of a DreamEvent.
type EventType string

const (
	EventStageChange          EventType = "stage_change"
	EventEnvironmentShift     EventType = "environment_shift"
	EventCharacterAppearance  EventType = "character_appearance"
	EventObjectTransformation EventType = "object_transformation"
	EventRevelation           EventType = "revelation"
	EventSensoryExperience    EventType = "sensory_experience"
	EventDreamLogic           EventType = "dream_logic"
	EventMemoryEcho           EventType = "memory_echo"
	EventConflict             EventType = "conflict"
	EventResolution           EventType = "resolution"
)

// AmbientEventTypes are the archetypes drawn for random per-tick events, in draw order.
var AmbientEventTypes = []EventType{
	EventEnvironmentShift,
	EventCharacterAppearance,
	EventObjectTransformation,
	EventRevelation,
	EventSensoryExperience,
	EventDreamLogic,
	EventMemoryEcho,
}

// Event is one entry of the append-only event log. Seq increases by one per
// emitted event and defines emission order.
type Event struct {
	Seq         uint64    `json:"seq"`
	Type        EventType `json:"type"`
	Time        float64   `json:"time"`
	Stage       string    `json:"stage"`
	Description string    `json:"description"`
	Impact      float64   `json:"impact"`
	Tone        string    `json:"emotional_tone"`
}

// Theme is a narrative theme with its weight in the session.
type Theme struct {
	Name       string  `json:"name"`
	Prominence float64 `json:"prominence"`
}

// Symbol is one entry of the session's symbol table.
type Symbol struct {
	Symbol     string  `json:"symbol"`
	Meaning    string  `json:"meaning"`
	Source     string  `json:"source"`
	Importance float64 `json:"importance"`
}

// AmbienceCue sets the soundscape level from Time onward.
type AmbienceCue struct {
	Time      float64 `json:"time"`
	Level     string  `json:"level"`
	Intensity float64 `json:"intensity"`
	Texture   string  `json:"texture"`
}

// Ambience is the soundscape track handed to the audio collaborator.
type Ambience struct {
	Key       string        `json:"key"`
	BaseLayer string        `json:"base_layer"`
	Elements  []string      `json:"elements"`
	Mood      string        `json:"mood"`
	Cues      []AmbienceCue `json:"cues"`
}

// Narrative is the compiled plan for a session.
type Narrative struct {
	Pattern     Pattern       `json:"pattern"`
	Stages      []Stage       `json:"stages"`
	Arc         []Keyframe    `json:"emotional_arc"`
	Themes      []Theme       `json:"themes"`
	Conflicts   []*Conflict   `json:"conflicts"`
	Resolutions []*Resolution `json:"resolutions"`
	Symbols     []Symbol      `json:"symbols"`
	Ambience    Ambience      `json:"ambience"`
}

// State is the lifecycle state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

// Session is the aggregate root. Only the clock mutates it while it runs;
// it is frozen once State is completed.
type Session struct {
	ID           string         `json:"id"`
	UserName     string         `json:"user_name,omitempty"`
	Type         string         `json:"dream_type"`
	Theme        string         `json:"theme"`
	Intensity    float64        `json:"intensity"`
	Duration     float64        `json:"duration"`
	Avoid        []string       `json:"avoid_themes,omitempty"`
	Prefer       []string       `json:"preferred_themes,omitempty"`
	Settings     []ContentEntry `json:"settings"`
	Characters   []ContentEntry `json:"characters"`
	Elements     []ContentEntry `json:"elements"`
	Narrative    Narrative      `json:"narrative"`
	Elapsed      float64        `json:"elapsed"`
	CurrentStage int            `json:"current_stage"`
	Active       bool           `json:"active"`
	Paused       bool           `json:"paused"`
	State        State          `json:"state"`
	EndedEarly   bool           `json:"ended_early,omitempty"`
}

// PrimarySetting returns the setting with the primary role, falling back
// to the first setting.
func (s *Session) PrimarySetting() (ContentEntry, bool) {
	for _, st := range s.Settings {
		if st.Role == RolePrimary {
			return st, true
		}
	}
	if len(s.Settings) > 0 {
		return s.Settings[0], true
	}
	return ContentEntry{}, false
}

// Events returns every event in emission order.
func (s *Session) Events() []Event {
	var all []Event
	for _, st := range s.Narrative.Stages {
		all = append(all, st.Events...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	return all
}

// ArcEmotions returns the emotion of each keyframe in order.
func (s *Session) ArcEmotions() []string {
	out := make([]string, len(s.Narrative.Arc))
	for i, k := range s.Narrative.Arc {
		out[i] = k.Emotion
	}
	return out
}
