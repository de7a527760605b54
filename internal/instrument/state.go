package instrument

import (
	"math"
	"sync"

	"github.com/openbench/bench-core/internal/command"
	"github.com/openbench/bench-core/internal/protocol"
)

// Phase names where a measuring session stands.
type Phase int

const (
	// PhaseIdle means no measurement command has been issued yet.
	PhaseIdle Phase = iota

	// PhaseMeasuring means single readings are flowing.
	PhaseMeasuring

	// PhaseTracking means min/max tracking is armed and extremes
	// accumulate across readings.
	PhaseTracking
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMeasuring:
		return "measuring"
	case PhaseTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// State tracks one device's measuring session. Running extremes only
// tighten while tracking; Reset is the sole way to relax them.
type State struct {
	mu sync.Mutex

	phase    Phase
	count    int
	min      float64
	max      float64
	haveSpan bool
}

// NewState returns an idle session.
func NewState() *State {
	return &State{}
}

// Note records a command passing through the device and moves the
// phase accordingly.
func (s *State) Note(cmd command.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case command.KindMeasure:
		if s.phase == PhaseIdle {
			s.phase = PhaseMeasuring
		}
	case command.KindMinMax, command.KindPeakMinMax:
		s.phase = PhaseTracking
		s.resetSpanLocked()
	case command.KindNotMinMax, command.KindNotPeak:
		s.phase = PhaseMeasuring
	case command.KindReset:
		s.phase = PhaseIdle
		s.resetSpanLocked()
		s.count = 0
	}
}

// Observe folds one reading into the session. Overload readings carry
// no numeric value and leave the extremes alone.
func (s *State) Observe(m protocol.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	if m.Overload || m.NCV {
		return
	}
	if !s.haveSpan {
		s.min, s.max = m.Value, m.Value
		s.haveSpan = true
		return
	}
	s.min = math.Min(s.min, m.Value)
	s.max = math.Max(s.max, m.Value)
}

// Reset clears the session back to idle.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	s.count = 0
	s.resetSpanLocked()
}

func (s *State) resetSpanLocked() {
	s.min, s.max = 0, 0
	s.haveSpan = false
}

// Phase returns the current session phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Count returns how many readings the session has seen.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Span returns the running minimum and maximum. ok is false until a
// numeric reading has been observed.
func (s *State) Span() (min, max float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min, s.max, s.haveSpan
}
