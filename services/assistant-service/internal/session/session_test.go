package session

import (
	"testing"
	"time"

	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/nlp"
)

func TestMergeAccumulates(t *testing.T) {
	s := State{Phase: PhaseCollectDuration}

	s = Merge(s, nlp.Extracted{DurationMinutes: 60})
	if s.DurationMinutes != 60 || s.Version != 1 {
		t.Fatalf("after turn 1: duration=%d version=%d", s.DurationMinutes, s.Version)
	}

	s = Merge(s, nlp.Extracted{Days: []string{"tuesday"}, Times: []string{"morning"}})
	s = Merge(s, nlp.Extracted{Days: []string{"tuesday", "thursday"}, Constraints: []string{"not_early"}})

	if s.Version != 3 {
		t.Fatalf("version = %d, want 3", s.Version)
	}
	if len(s.Days) != 2 {
		t.Fatalf("days = %v, want deduplicated pair", s.Days)
	}
	if s.DurationMinutes != 60 {
		t.Fatal("duration lost across merges")
	}
}

func TestMergeOverwritesScalars(t *testing.T) {
	s := Merge(State{}, nlp.Extracted{DurationMinutes: 30})
	s = Merge(s, nlp.Extracted{DurationMinutes: 60})
	if s.DurationMinutes != 60 {
		t.Fatalf("duration = %d, want the later value", s.DurationMinutes)
	}

	// A turn with no duration keeps the existing one.
	s = Merge(s, nlp.Extracted{Days: []string{"friday"}})
	if s.DurationMinutes != 60 {
		t.Fatal("empty turn cleared the duration")
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	orig := State{Days: []string{"monday"}}
	_ = Merge(orig, nlp.Extracted{Days: []string{"tuesday"}})
	if len(orig.Days) != 1 {
		t.Fatalf("input state mutated: %v", orig.Days)
	}
}

func TestMergeTargetDate(t *testing.T) {
	target := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	s := Merge(State{}, nlp.Extracted{TargetDate: &target})
	if s.TargetDate == nil || !s.TargetDate.Equal(target) {
		t.Fatalf("target = %v, want %v", s.TargetDate, target)
	}
}

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()
	s := st.Create()
	if s.ID == "" || s.Phase != PhaseCollectDuration {
		t.Fatalf("fresh session = %+v", s)
	}

	s.DurationMinutes = 45
	st.Put(s)

	got, err := st.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DurationMinutes != 45 {
		t.Fatalf("duration = %d after Put", got.DurationMinutes)
	}

	if _, err := st.Get("missing"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
