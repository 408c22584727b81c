package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/nlp"
)

type Phase string

const (
	PhaseCollectDuration    Phase = "collect_duration"
	PhaseCollectPreferences Phase = "collect_preferences"
	PhasePresentSlots       Phase = "present_slots"
	PhaseDone               Phase = "done"
)

// Slot is one option presented to the user, kept verbatim so a later
// selection books exactly what was shown.
type Slot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DisplayText string `json:"display_text"`
}

// State is the full meeting context for one conversation. Every field is
// explicit; merges happen only through Merge so each turn leaves an auditable
// version step.
type State struct {
	ID              string
	Version         int
	Phase           Phase
	DurationMinutes int
	Days            []string
	Times           []string
	Constraints     []string
	TargetDate      *time.Time
	Presented       []Slot
	All             []Slot
	ConfirmedEvent  string
	UpdatedAt       time.Time
}

// Merge folds one turn's extraction into the state and returns the result.
// Lists accumulate without duplicates; scalar fields overwrite only when the
// new turn actually set them. The input state is not mutated.
func Merge(s State, ex nlp.Extracted) State {
	out := s
	out.Version++
	out.Days = append([]string(nil), s.Days...)
	out.Times = append([]string(nil), s.Times...)
	out.Constraints = append([]string(nil), s.Constraints...)

	if ex.DurationMinutes > 0 {
		out.DurationMinutes = ex.DurationMinutes
	}
	for _, d := range ex.Days {
		out.Days = appendUnique(out.Days, d)
	}
	for _, t := range ex.Times {
		out.Times = appendUnique(out.Times, t)
	}
	for _, c := range ex.Constraints {
		out.Constraints = appendUnique(out.Constraints, c)
	}
	if ex.TargetDate != nil {
		target := *ex.TargetDate
		out.TargetDate = &target
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

var ErrNotFound = errors.New("session not found")

// Store holds live conversations in memory. Sessions are single-process
// state; nothing here survives a restart.
type Store struct {
	mu       sync.Mutex
	sessions map[string]State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]State)}
}

func (st *Store) Create() State {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := State{
		ID:        uuid.NewString(),
		Phase:     PhaseCollectDuration,
		UpdatedAt: time.Now().UTC(),
	}
	st.sessions[s.ID] = s
	return s
}

func (st *Store) Get(id string) (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (st *Store) Put(s State) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	st.sessions[s.ID] = s
}
