package clean

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/status"
)

// DB provides call reaping functionality
type DB interface {
	ReapStale(ctx context.Context, maxAge time.Duration) ([]string, error)
	LoadCall(ctx context.Context, id string) (*persistence.Call, error)
	SetCandidateStatus(ctx context.Context, id, st string) error
}

// Cleaner force fails calls stuck in progress longer than maxAge
type Cleaner struct {
	db     DB
	maxAge time.Duration
}

// NewCleaner creates the stale call cleaner
func NewCleaner(db DB, maxAge time.Duration) (*Cleaner, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("wrong maxAge %v", maxAge)
	}
	return &Cleaner{db: db, maxAge: maxAge}, nil
}

// Do reaps stale calls and marks their candidates failed.
// Returns the count of reaped calls
func (c *Cleaner) Do(ctx context.Context) (int, error) {
	ids, err := c.db.ReapStale(ctx, c.maxAge)
	if err != nil {
		return 0, fmt.Errorf("can't reap stale calls: %w", err)
	}
	for _, id := range ids {
		goapp.Log.Warn().Str("ID", id).Msg("reaped stale call")
		call, err := c.db.LoadCall(ctx, id)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Send()
			continue
		}
		if err := c.db.SetCandidateStatus(ctx, call.CandidateID, status.Failed.String()); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Send()
		}
	}
	return len(ids), nil
}
