package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type fakeEscalationStore struct {
	counts map[[2]int64]int
	fail   bool
}

func newFakeEscalationStore() *fakeEscalationStore {
	return &fakeEscalationStore{counts: map[[2]int64]int{}}
}

func (s *fakeEscalationStore) IncrementInfraction(_ context.Context, userID, chatID int64) (int, error) {
	if s.fail {
		return 0, errors.New("storage offline")
	}
	key := [2]int64{userID, chatID}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeEscalationStore) ResetInfractions(_ context.Context, userID, chatID int64) error {
	if s.fail {
		return errors.New("storage offline")
	}
	s.counts[[2]int64{userID, chatID}] = 0
	return nil
}

func TestEscalationSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	escalation := NewEscalationStore(newFakeEscalationStore())

	want := []time.Duration{5 * time.Minute, 15 * time.Minute, 30 * time.Minute, 30 * time.Minute}
	for i, expected := range want {
		if got := escalation.RecordInfraction(ctx, 7, -100); got != expected {
			t.Fatalf("infraction #%d: duration = %v, want %v", i+1, got, expected)
		}
	}
}

func TestEscalationResetStartsOver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	escalation := NewEscalationStore(newFakeEscalationStore())

	escalation.RecordInfraction(ctx, 7, -100)
	escalation.RecordInfraction(ctx, 7, -100)
	if err := escalation.ResetInfractions(ctx, 7, -100); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if got := escalation.RecordInfraction(ctx, 7, -100); got != 5*time.Minute {
		t.Fatalf("post-reset duration = %v, want %v", got, 5*time.Minute)
	}
}

func TestEscalationIsolatedPerChat(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	escalation := NewEscalationStore(newFakeEscalationStore())

	escalation.RecordInfraction(ctx, 7, -100)
	escalation.RecordInfraction(ctx, 7, -100)
	if got := escalation.RecordInfraction(ctx, 7, -200); got != 5*time.Minute {
		t.Fatalf("other chat duration = %v, want %v", got, 5*time.Minute)
	}
}

func TestEscalationStoreFailureReadsAsFirstOffense(t *testing.T) {
	t.Parallel()

	store := newFakeEscalationStore()
	store.fail = true
	escalation := NewEscalationStore(store)

	if got := escalation.RecordInfraction(context.Background(), 7, -100); got != 5*time.Minute {
		t.Fatalf("degraded store duration = %v, want %v", got, 5*time.Minute)
	}
}
