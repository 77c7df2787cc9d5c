package core

import (
	"testing"
	"time"
)

func demoQuestions(n int) []Question {
	qs := make([]Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, Question{ID: int64(i), SurveyID: 1, Ordinal: i, Text: "q", Kind: "open"})
	}
	return qs
}

func TestSession_CursorNeverExceedsQuestions(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(2))

	if got := s.AdvanceCursor(); got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}
	if got := s.AdvanceCursor(); got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
	// Past the end the cursor pins.
	if got := s.AdvanceCursor(); got != 2 {
		t.Fatalf("cursor = %d, want 2 after extra advance", got)
	}
}

func TestSession_RetryBudget(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(1))
	s.MaxRetries = 3

	for i := 1; i <= 3; i++ {
		if !s.IncrementRetry() {
			t.Fatalf("retry %d should be within budget", i)
		}
	}
	if s.IncrementRetry() {
		t.Fatal("fourth retry should exhaust the budget")
	}
}

func TestSession_RetryResetsOnProgress(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(2))
	s.IncrementRetry()
	s.IncrementRetry()

	s.RecordAnswer(1, "answer")
	if s.RetryCount != 0 {
		t.Fatalf("RetryCount = %d after RecordAnswer, want 0", s.RetryCount)
	}

	s.IncrementRetry()
	s.SetPhase(PhaseWaitAnswer)
	if s.RetryCount != 0 {
		t.Fatalf("RetryCount = %d after SetPhase, want 0", s.RetryCount)
	}
}

func TestSession_CompleteIsIdempotent(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(1))
	s.CloseOut()
	stamped := *s.CompletedAt

	s.Complete()
	if s.Phase != PhaseDone {
		t.Fatalf("Phase = %s, want done", s.Phase)
	}
	if !s.CompletedAt.Equal(stamped) {
		t.Error("Complete should keep the close-out timestamp")
	}

	updated := s.UpdatedAt
	time.Sleep(time.Millisecond)
	s.Complete()
	if !s.UpdatedAt.Equal(updated) {
		t.Error("repeated Complete should not touch the session")
	}
}

func TestSession_AbandonIsIdempotent(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(1))
	s.Abandon()
	stamped := *s.CompletedAt

	time.Sleep(time.Millisecond)
	s.Abandon()
	if !s.CompletedAt.Equal(stamped) {
		t.Error("repeated Abandon should not restamp")
	}
}

func TestSession_SnapshotOrdinalPinsAtEnd(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(2))
	s.AdvanceCursor()
	s.AdvanceCursor()

	st := s.Snapshot()
	if st.QuestionOrdinal != 2 {
		t.Fatalf("QuestionOrdinal = %d, want 2", st.QuestionOrdinal)
	}
	if st.Progress != 1.0 {
		t.Fatalf("Progress = %f, want 1.0", st.Progress)
	}
}

func TestSession_TryBeginTurn(t *testing.T) {
	s := NewSession("s1", 1, 1, "Ahmed", demoQuestions(1))
	s.BeginTurn()
	if s.TryBeginTurn() {
		t.Fatal("TryBeginTurn should fail while a turn is in flight")
	}
	s.EndTurn()
	if !s.TryBeginTurn() {
		t.Fatal("TryBeginTurn should succeed after the turn ends")
	}
	s.EndTurn()
}
