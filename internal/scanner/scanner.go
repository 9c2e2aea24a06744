package scanner

import (
	"context"
	"strings"
	"sync"
	"time"

	"qrattendance/internal/metrics"
	"qrattendance/internal/model"
	"qrattendance/internal/store"
)

// State is the scanner's observable display state.
type State string

// Evaluation itself is synchronous, so only the resting and terminal display
// states are ever observable.
const (
	StateIdle       State = "idle"
	StateArmed      State = "armed"
	StateMatchFound State = "match_found"
	StateNoMatch    State = "no_match"
)

// Recorder is the attendance-recording operation invoked on a match.
type Recorder interface {
	Mark(studentID, studentName, actorID string) model.Record
}

// Result is the outcome of a single evaluation.
type Result struct {
	State      State          `json:"state"`
	Student    *model.Student `json:"student,omitempty"`
	Record     *model.Record  `json:"record,omitempty"`
	Suppressed bool           `json:"suppressed,omitempty"`
}

// Scanner turns candidate code strings into attendance records. One instance
// backs one scanning station; the post-accept cooldown is global to the
// instance, not per student.
type Scanner struct {
	store    *store.Store
	recorder Recorder

	cooldown   time.Duration
	displayTTL time.Duration
	now        func() time.Time

	mu           sync.Mutex
	armed        bool
	lastAccepted time.Time
	lastState    State // MatchFound or NoMatch while the display holds
	lastStudent  *model.Student
	lastResultAt time.Time
}

// New creates a scanner. cooldown suppresses evaluations after an accepted
// scan; displayTTL is how long a terminal display state holds before the
// scanner reads as armed again.
func New(st *store.Store, rec Recorder, cooldown, displayTTL time.Duration) *Scanner {
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	if displayTTL <= 0 {
		displayTTL = 3 * time.Second
	}
	return &Scanner{
		store:      st,
		recorder:   rec,
		cooldown:   cooldown,
		displayTTL: displayTTL,
		now:        time.Now,
	}
}

// Arm puts the scanner into the armed state, accepting candidates.
func (s *Scanner) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
}

// Disarm returns the scanner to idle, e.g. when the camera is stopped.
func (s *Scanner) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
}

// State reports the current display state. Terminal states decay back to
// armed once displayTTL has passed; nothing is mutated on read.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return StateIdle
	}
	if s.lastState != "" && s.now().Sub(s.lastResultAt) < s.displayTTL {
		return s.lastState
	}
	return StateArmed
}

// LastMatch returns the student attached to the current display state, if it
// is a still-visible match.
func (s *Scanner) LastMatch() *model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastState == StateMatchFound && s.now().Sub(s.lastResultAt) < s.displayTTL {
		st := *s.lastStudent
		return &st
	}
	return nil
}

// Evaluate runs one candidate through the matcher on behalf of actorID. The
// candidate is trimmed and compared for exact equality against student
// attendance codes. A match records attendance and starts the cooldown;
// inside the cooldown window every evaluation is suppressed regardless of the
// candidate. Evaluating arms an idle scanner, which is what a manual text
// entry does in the absence of a camera.
//
// The mutex is held for the whole evaluation: the cooldown check and the
// write to lastAccepted must not be separated, or two concurrent evaluations
// could both pass the guard and double-record. The scanner locks before the
// store and the store never calls back, so the order is acyclic.
func (s *Scanner) Evaluate(candidate, actorID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.armed = true
	if !s.lastAccepted.IsZero() && now.Sub(s.lastAccepted) < s.cooldown {
		metrics.ScansSuppressed.Inc()
		return Result{State: s.stateLocked(), Suppressed: true}
	}

	metrics.ScansEvaluated.Inc()
	code := strings.TrimSpace(candidate)
	st, err := s.store.StudentByCode(code)
	if err != nil {
		s.lastState = StateNoMatch
		s.lastStudent = nil
		s.lastResultAt = now
		metrics.ScansUnmatched.Inc()
		return Result{State: StateNoMatch}
	}

	rec := s.recorder.Mark(st.ID, st.Name, actorID)
	s.lastState = StateMatchFound
	s.lastStudent = &st
	s.lastResultAt = now
	s.lastAccepted = now
	metrics.ScansMatched.Inc()
	return Result{State: StateMatchFound, Student: &st, Record: &rec}
}

func (s *Scanner) stateLocked() State {
	if !s.armed {
		return StateIdle
	}
	if s.lastState != "" && s.now().Sub(s.lastResultAt) < s.displayTTL {
		return s.lastState
	}
	return StateArmed
}

// Run arms the scanner and evaluates every candidate the source produces
// until the context is done or the source's stream closes. The scanner is
// disarmed on the way out.
func (s *Scanner) Run(ctx context.Context, src CandidateSource, actorID string) error {
	candidates, err := src.Candidates(ctx)
	if err != nil {
		return err
	}
	s.Arm()
	defer s.Disarm()
	for {
		select {
		case c, ok := <-candidates:
			if !ok {
				return nil
			}
			s.Evaluate(c, actorID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
