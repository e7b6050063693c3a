package data

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coparental/guardlink/src/api/policy"
	"github.com/coparental/guardlink/src/api/types"
	shareddata "github.com/coparental/guardlink/src/shared/data"
)

// Sweeper expires stale pending proposals and completes elapsed cooling
// periods. Safe to run from several replicas: every transition is a CAS,
// and a record another worker already moved is skipped silently.
type Sweeper struct {
	db      *gorm.DB
	rdb     *redis.Client
	mu      sync.Mutex
	running bool
}

func NewSweeper(db *gorm.DB, rdb *redis.Client) *Sweeper {
	return &Sweeper{db: db, rdb: rdb}
}

func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately
	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	swept, err := SweepExpiredAndCompleted(s.db, time.Now())
	if err != nil {
		log.Printf("sweep: %v", err)
		return
	}
	for i := range swept {
		p := &swept[i]
		log.Printf("sweep: proposal %s -> %s", p.ID, p.Status)
		_ = shareddata.PublishProposalEvent(ctx, s.rdb, map[string]interface{}{
			"event":       "proposal." + string(p.Status),
			"proposal":    p.ID,
			"child":       p.ChildID,
			"setting":     string(p.SettingType),
			"proposed_by": p.ProposedBy,
			"time":        time.Now().Unix(),
		})
	}
}

// SweepExpiredAndCompleted runs one sweep pass at the given instant and
// returns the proposals it transitioned. Idempotent: a second pass at the
// same now finds nothing left to do.
func SweepExpiredAndCompleted(db *gorm.DB, now time.Time) ([]types.Proposal, error) {
	var swept []types.Proposal

	var stale []types.Proposal
	err := db.Where("status = ? AND expires_at <= ?", types.StatusPending, now).Find(&stale).Error
	if err != nil {
		return nil, err
	}
	for i := range stale {
		p := &stale[i]
		if !policy.SweepExpire(p, now) {
			continue
		}
		if err := SaveTransition(db, p, now); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue // another worker got there first
			}
			return swept, err
		}
		swept = append(swept, *p)
	}

	var cooling []types.Proposal
	err = db.Preload("Cooling").
		Where("status = ?", types.StatusCoolingInProgress).
		Find(&cooling).Error
	if err != nil {
		return swept, err
	}
	for i := range cooling {
		p := &cooling[i]
		if !policy.SweepCompleteCooling(p, now) {
			continue
		}
		if err := SaveTransition(db, p, now); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return swept, err
		}
		swept = append(swept, *p)
	}

	return swept, nil
}
