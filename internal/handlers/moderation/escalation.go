package handlers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	firstOffenseDuration  = 5 * time.Minute
	secondOffenseDuration = 15 * time.Minute
	repeatOffenseDuration = 30 * time.Minute
)

type escalationStore interface {
	IncrementInfraction(ctx context.Context, userID, chatID int64) (int, error)
	ResetInfractions(ctx context.Context, userID, chatID int64) error
}

// EscalationStore computes escalating mute durations from per-user-per-chat
// infraction history. The increment is a single atomic upsert, so two
// near-simultaneous infractions cannot observe the same prior count.
type EscalationStore struct {
	store escalationStore
}

func NewEscalationStore(store escalationStore) *EscalationStore {
	return &EscalationStore{store: store}
}

// RecordInfraction bumps the stored count and returns the mute duration for
// the count as it stood before the increment. A degraded store reads as a
// first offense, moderation keeps working without bookkeeping.
func (e *EscalationStore) RecordInfraction(ctx context.Context, userID, chatID int64) time.Duration {
	count, err := e.store.IncrementInfraction(ctx, userID, chatID)
	if err != nil {
		log.WithFields(log.Fields{
			"context": "escalation",
			"user_id": userID,
			"chat_id": chatID,
			"error":   err.Error(),
		}).Error("cant persist infraction")
		return firstOffenseDuration
	}
	return durationForPriorCount(count - 1)
}

// ResetInfractions zeroes the stored count unconditionally.
func (e *EscalationStore) ResetInfractions(ctx context.Context, userID, chatID int64) error {
	return e.store.ResetInfractions(ctx, userID, chatID)
}

func durationForPriorCount(prior int) time.Duration {
	switch {
	case prior <= 0:
		return firstOffenseDuration
	case prior == 1:
		return secondOffenseDuration
	default:
		return repeatOffenseDuration
	}
}
