package scheduler

import (
	"errors"
	"testing"

	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

func TestStepLegalityMatrix(t *testing.T) {
	allowed := map[models.SessionStatus]map[Transition]models.SessionStatus{
		models.SessionPending: {
			TransitionConfirm: models.SessionConfirmed,
			TransitionCancel:  models.SessionCancelled,
		},
		models.SessionConfirmed: {
			TransitionComplete: models.SessionCompleted,
			TransitionCancel:   models.SessionCancelled,
		},
	}

	statuses := []models.SessionStatus{
		models.SessionPending,
		models.SessionConfirmed,
		models.SessionCompleted,
		models.SessionCancelled,
		models.SessionNoShow,
	}
	transitions := []Transition{TransitionConfirm, TransitionComplete, TransitionCancel}

	for _, from := range statuses {
		for _, transition := range transitions {
			next, err := Step(from, transition)
			want, legal := allowed[from][transition]
			if legal {
				if err != nil {
					t.Errorf("%s + %s: expected success, got %v", from, transition, err)
					continue
				}
				if next != want {
					t.Errorf("%s + %s: expected %s, got %s", from, transition, want, next)
				}
				continue
			}
			var transitionErr *TransitionError
			if !errors.As(err, &transitionErr) {
				t.Errorf("%s + %s: expected TransitionError, got %v", from, transition, err)
				continue
			}
			if transitionErr.From != from || transitionErr.Requested != transition {
				t.Errorf("%s + %s: error carries wrong details: %+v", from, transition, transitionErr)
			}
		}
	}
}

func TestConfirmThenCancelThenCompleteFails(t *testing.T) {
	status := models.SessionPending

	status, err := Step(status, TransitionConfirm)
	if err != nil {
		t.Fatalf("confirm from pending: %v", err)
	}
	if status != models.SessionConfirmed {
		t.Fatalf("expected confirmed, got %s", status)
	}

	status, err = Step(status, TransitionCancel)
	if err != nil {
		t.Fatalf("cancel from confirmed: %v", err)
	}
	if status != models.SessionCancelled {
		t.Fatalf("expected cancelled, got %s", status)
	}

	if _, err := Step(status, TransitionComplete); err == nil {
		t.Fatal("expected completing a cancelled session to fail")
	}
}

func TestParseTransitionNormalizesNames(t *testing.T) {
	cases := map[string]Transition{
		"confirm":    TransitionConfirm,
		"Confirmed":  TransitionConfirm,
		"complete":   TransitionComplete,
		" completed": TransitionComplete,
		"cancel":     TransitionCancel,
		"CANCELLED":  TransitionCancel,
		"canceled":   TransitionCancel,
	}
	for raw, want := range cases {
		got, err := ParseTransition(raw)
		if err != nil {
			t.Errorf("ParseTransition(%q): %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTransition(%q): expected %s, got %s", raw, want, got)
		}
	}

	if _, err := ParseTransition("no_show"); err == nil {
		t.Error("expected no_show to be rejected; no actor transition produces it")
	}
	if _, err := ParseTransition("delete"); err == nil {
		t.Error("expected delete to be rejected; deletion is not a lifecycle transition")
	}
}

func TestAvailableTransitionsDrivesFailClosedUI(t *testing.T) {
	if got := AvailableTransitions(models.SessionPending); len(got) != 2 {
		t.Fatalf("expected 2 transitions from pending, got %v", got)
	}
	if got := AvailableTransitions(models.SessionConfirmed); len(got) != 2 {
		t.Fatalf("expected 2 transitions from confirmed, got %v", got)
	}
	for _, terminal := range []models.SessionStatus{
		models.SessionCompleted,
		models.SessionCancelled,
		models.SessionNoShow,
	} {
		if got := AvailableTransitions(terminal); len(got) != 0 {
			t.Errorf("expected no transitions from %s, got %v", terminal, got)
		}
	}
}
