package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/dreamsim/internal/analysis"
	"github.com/talgya/dreamsim/internal/builder"
	"github.com/talgya/dreamsim/internal/catalog"
	"github.com/talgya/dreamsim/internal/dream"
	"github.com/talgya/dreamsim/internal/entropy"
	"github.com/talgya/dreamsim/internal/journal"
	"github.com/talgya/dreamsim/internal/logging"
	"github.com/talgya/dreamsim/internal/narrative"
	"github.com/talgya/dreamsim/internal/patterns"
)

// ErrSessionActive is returned by Configure while a session is running or paused.
var ErrSessionActive = errors.New("engine: a session is already running")

// Completion is delivered once when a session reaches its natural end.
type Completion struct {
	Session *dream.Session
	Report  dream.Report
	Entry   dream.JournalEntry
	Profile dream.Profile
}

// Status is a point-in-time view of the director.
type Status struct {
	SessionID  string      `json:"session_id,omitempty"`
	State      dream.State `json:"state"`
	DreamType  string      `json:"dream_type,omitempty"`
	Theme      string      `json:"theme,omitempty"`
	Elapsed    float64     `json:"elapsed"`
	Duration   float64     `json:"duration"`
	Stage      string      `json:"stage,omitempty"`
	StageIndex int         `json:"stage_index"`
	Emotion    string      `json:"emotion,omitempty"`
	Intensity  float64     `json:"emotion_intensity"`
	Events     int         `json:"events"`
	LastSeq    uint64      `json:"last_seq"`
}

type subscriber struct {
	id int
	fn func(dream.Event)
}

// Director owns at most one session and drives it through
// idle -> running <-> paused -> completed.
type Director struct {
	lib      *catalog.Library
	builder  *builder.Builder
	compiler *narrative.Compiler
	analyzer *analysis.Analyzer
	store    journal.Store
	clock    TimeSource
	src      entropy.Source
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu          sync.Mutex
	session     *dream.Session
	startedAt   float64
	pausedAt    float64
	pausedTotal float64
	seq         uint64
	events      []dream.Event
	report      *dream.Report
	cancel      context.CancelFunc
	done        chan struct{}
	subs        []subscriber
	nextSub     int
	completions []func(Completion)

	// serializes ticks so subscribers see events in emission order
	deliver sync.Mutex
}

// Option configures a Director.
type Option func(*Director)

// WithClock sets the time source.
func WithClock(c TimeSource) Option {
	return func(d *Director) { d.clock = c }
}

// WithSource sets the random source used for generation and ambient events.
func WithSource(src entropy.Source) Option {
	return func(d *Director) { d.src = src }
}

// WithStore sets the journal store.
func WithStore(s journal.Store) Option {
	return func(d *Director) { d.store = s }
}

// WithInterval sets the real tick period.
func WithInterval(i time.Duration) Option {
	return func(d *Director) { d.interval = i }
}

// WithManualTicks disables the background ticker; the caller calls Tick.
func WithManualTicks() Option {
	return func(d *Director) { d.interval = 0 }
}

// WithNow sets the wall-clock used to stamp journal entries.
func WithNow(now func() time.Time) Option {
	return func(d *Director) { d.now = now }
}

// OnComplete registers a callback for natural session completion.
func OnComplete(fn func(Completion)) Option {
	return func(d *Director) { d.completions = append(d.completions, fn) }
}

// NewDirector creates a director over lib.
func NewDirector(lib *catalog.Library, opts ...Option) *Director {
	d := &Director{
		lib:      lib,
		builder:  builder.New(lib),
		compiler: narrative.New(lib),
		analyzer: analysis.New(lib),
		store:    journal.NewMemory(),
		clock:    NewWallClock(1),
		src:      entropy.Crypto{},
		interval: DefaultInterval,
		now:      time.Now,
		log:      logging.New("director"),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Configure builds and compiles a new idle session, replacing any finished
// or unstarted one.
func (d *Director) Configure(cfg dream.Config) (*dream.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil && (d.session.State == dream.StateRunning || d.session.State == dream.StatePaused) {
		return nil, ErrSessionActive
	}
	s, err := d.builder.Build(cfg, d.src)
	if err != nil {
		return nil, err
	}
	if err := d.compiler.Compile(s, d.src); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	d.session = s
	d.events = nil
	d.report = nil
	d.done = make(chan struct{})
	d.log.Info("session configured",
		"session", s.ID,
		"dream_type", s.Type,
		"theme", s.Theme,
		"intensity", s.Intensity,
		"duration", s.Duration,
		"pattern", s.Narrative.Pattern.Key,
	)
	return s.Clone(), nil
}

// Start begins playback of a configured idle session.
func (d *Director) Start() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil || s.State != dream.StateIdle {
		return false
	}
	s.State = dream.StateRunning
	s.Active = true
	s.Paused = false
	d.startedAt = d.clock.Now()
	d.pausedTotal = 0

	if d.interval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		d.cancel = cancel
		t := NewTicker(d.interval, func(uint64) bool { return d.Tick() })
		go t.Run(ctx)
	}
	d.log.Info("session started", "session", s.ID)
	return true
}

// Pause freezes elapsed-time accounting.
func (d *Director) Pause() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil || s.State != dream.StateRunning {
		return false
	}
	s.State = dream.StatePaused
	s.Paused = true
	d.pausedAt = d.clock.Now()
	d.log.Info("session paused", "session", s.ID, "elapsed", s.Elapsed)
	return true
}

// Resume continues a paused session.
func (d *Director) Resume() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil || s.State != dream.StatePaused {
		return false
	}
	d.pausedTotal += d.clock.Now() - d.pausedAt
	s.State = dream.StateRunning
	s.Paused = false
	d.log.Info("session resumed", "session", s.ID)
	return true
}

// Stop ends a running or paused session immediately. The session is frozen
// where it stands and no report is produced.
func (d *Director) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil || (s.State != dream.StateRunning && s.State != dream.StatePaused) {
		return false
	}
	s.State = dream.StateCompleted
	s.Active = false
	s.Paused = false
	s.EndedEarly = true
	d.stopTicker()
	close(d.done)
	d.log.Info("session stopped", "session", s.ID, "elapsed", s.Elapsed, "stage", s.CurrentStage)
	return true
}

func (d *Director) stopTicker() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Tick advances the running session to the current clock reading. It
// returns false once there is nothing left to tick.
func (d *Director) Tick() bool {
	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	s := d.session
	if s == nil {
		d.mu.Unlock()
		return false
	}
	switch s.State {
	case dream.StatePaused:
		d.mu.Unlock()
		return true
	case dream.StateRunning:
	default:
		d.mu.Unlock()
		return false
	}

	elapsed := math.Max(0, math.Floor(d.clock.Now()-d.startedAt-d.pausedTotal))
	finished := elapsed >= s.Duration
	if finished {
		elapsed = s.Duration
	}
	s.Elapsed = elapsed
	first := len(d.events)

	stages := s.Narrative.Stages
	target := s.Narrative.StageAt(elapsed)
	if finished {
		target = len(stages) - 1
	}
	for s.CurrentStage < target {
		stages[s.CurrentStage].Completed = true
		s.CurrentStage++
		label := stages[s.CurrentStage].Label
		d.emit(s, dream.EventStageChange, elapsed, catalog.Fill(d.lib.Events.StageChange, "stage", label), 0)
	}

	if !finished {
		n := narrator{lib: d.lib, src: d.src}
		if typ, desc, impact, ok := n.ambient(s, elapsed); ok {
			d.emit(s, typ, elapsed, desc, impact)
		}
	}

	for _, c := range s.Narrative.Conflicts {
		if !c.Triggered && c.OccursAt <= elapsed {
			c.Triggered = true
			d.emit(s, dream.EventConflict, elapsed, catalog.Fill(d.lib.Events.Conflict, "description", c.Description), c.Intensity)
		}
	}
	for _, r := range s.Narrative.Resolutions {
		if !r.Triggered && r.OccursAt <= elapsed {
			r.Triggered = true
			d.emit(s, dream.EventResolution, elapsed, catalog.Fill(d.lib.Events.Resolution, "description", r.Description), r.Satisfaction)
		}
	}

	var done *Completion
	if finished {
		done = d.complete(s)
	}

	pending := append([]dream.Event(nil), d.events[first:]...)
	subs := append([]subscriber(nil), d.subs...)
	callbacks := d.completions

	d.mu.Unlock()
	for _, ev := range pending {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
	if done != nil {
		for _, fn := range callbacks {
			fn(*done)
		}
	}
	return !finished
}

// emit appends an event to the current stage and the director log.
func (d *Director) emit(s *dream.Session, typ dream.EventType, t float64, desc string, impact float64) {
	d.seq++
	ev := dream.Event{
		Seq:         d.seq,
		Type:        typ,
		Time:        t,
		Description: desc,
		Impact:      impact,
		Tone:        s.Narrative.EmotionAt(t).Emotion,
	}
	if n := len(s.Narrative.Stages); n > 0 {
		st := &s.Narrative.Stages[s.CurrentStage]
		ev.Stage = st.Label
		st.Events = append(st.Events, ev)
	}
	d.events = append(d.events, ev)
	d.log.Debug("dream event", "seq", ev.Seq, "type", ev.Type, "time", Clock(t), "description", desc)
}

// complete freezes s, runs the analyzer once and records the journal entry.
// Called with d.mu held.
func (d *Director) complete(s *dream.Session) *Completion {
	for i := range s.Narrative.Stages {
		s.Narrative.Stages[i].Completed = true
	}
	s.State = dream.StateCompleted
	s.Active = false
	s.Paused = false
	d.stopTicker()

	report := d.analyzer.Analyze(s)
	d.report = &report

	ctx := context.Background()
	c := &Completion{Session: s.Clone(), Report: report}
	id, err := uuid.NewRandomFromReader(entropy.Reader(d.src))
	if err != nil {
		d.log.Error("journal entry id", "error", err)
		id = uuid.New()
	}
	c.Entry = journal.NewEntry(id.String(), s, report, d.now())
	if err := d.store.Save(ctx, c.Entry); err != nil {
		d.log.Error("saving journal entry", "session", s.ID, "error", err)
	}
	entries, err := d.store.All(ctx)
	if err != nil {
		d.log.Error("loading journal", "error", err)
	}
	c.Profile = patterns.Track(d.lib, entries)

	close(d.done)
	d.log.Info("session completed",
		"session", s.ID,
		"events", len(d.events),
		"conflicts", len(s.Narrative.Conflicts),
		"resolutions", len(s.Narrative.Resolutions),
	)
	return c
}

// Subscribe registers fn for every event emitted from now on, in emission
// order. fn must not call Tick. The returned func unsubscribes.
func (d *Director) Subscribe(fn func(dream.Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSub++
	id := d.nextSub
	d.subs = append(d.subs, subscriber{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// EventsSince returns the current session's events with Seq > seq.
func (d *Director) EventsSince(seq uint64) []dream.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dream.Event
	for _, e := range d.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot returns a deep copy of the current session.
func (d *Director) Snapshot() (*dream.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil, false
	}
	return d.session.Clone(), true
}

// Report returns the analyzer output of a naturally completed session.
func (d *Director) Report() (dream.Report, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.report == nil {
		return dream.Report{}, false
	}
	return *d.report, true
}

// Status reports the current state.
func (d *Director) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{State: dream.StateIdle, LastSeq: d.seq}
	s := d.session
	if s == nil {
		return st
	}
	st.SessionID = s.ID
	st.State = s.State
	st.DreamType = s.Type
	st.Theme = s.Theme
	st.Elapsed = s.Elapsed
	st.Duration = s.Duration
	st.StageIndex = s.CurrentStage
	if s.CurrentStage < len(s.Narrative.Stages) {
		st.Stage = s.Narrative.Stages[s.CurrentStage].Label
	}
	k := s.Narrative.EmotionAt(s.Elapsed)
	st.Emotion = k.Emotion
	st.Intensity = k.Intensity
	st.Events = len(d.events)
	return st
}

// Done is closed when the current session completes or is stopped. It is
// nil before the first Configure.
func (d *Director) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// JournalEntries returns the most recent limit entries, oldest first.
func (d *Director) JournalEntries(ctx context.Context, limit int) ([]dream.JournalEntry, error) {
	return d.store.List(ctx, limit)
}

// DreamPatterns recomputes the profile from the whole journal.
func (d *Director) DreamPatterns(ctx context.Context) (dream.Profile, error) {
	entries, err := d.store.All(ctx)
	if err != nil {
		return dream.Profile{}, fmt.Errorf("dream patterns: %w", err)
	}
	return patterns.Track(d.lib, entries), nil
}

// SymbolMeaning looks term up in the symbol dictionary.
func (d *Director) SymbolMeaning(term string) (string, bool) {
	return d.lib.SymbolMeaning(term)
}

// Interpretation returns the long-form reading of term.
func (d *Director) Interpretation(term string) (catalog.Interpretation, bool) {
	return d.lib.Interpretation(term)
}

// FastForward steps a virtual clock one second per tick until the running
// session finishes or is stopped. It returns the number of ticks.
func FastForward(d *Director, vc *VirtualClock) int {
	ticks := 0
	for {
		vc.Advance(1)
		ticks++
		if !d.Tick() {
			return ticks
		}
	}
}
