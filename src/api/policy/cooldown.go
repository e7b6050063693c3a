package policy

import (
	"time"

	"github.com/coparental/guardlink/src/api/types"
)

// CanPropose enforces the reproposal cooldown: after a decline, the same
// setting type cannot be re-proposed for the same child for seven days.
// History holds past proposals for the (child, settingType) pair in any
// order; only the most recent decline matters.
func CanPropose(history []types.Proposal, now time.Time) *Error {
	var lastDecline *time.Time
	for i := range history {
		p := &history[i]
		if p.Status != types.StatusDeclined || p.RespondedAt == nil {
			continue
		}
		if lastDecline == nil || p.RespondedAt.After(*lastDecline) {
			lastDecline = p.RespondedAt
		}
	}
	if lastDecline == nil {
		return nil
	}
	allowedAt := ReproposalAllowedAt(*lastDecline)
	if now.Before(allowedAt) {
		return errf(CodeCooldownActive, "setting was declined recently; try again in %s", Remaining(allowedAt, now).Round(time.Minute))
	}
	return nil
}

// WithinCreationRate reports whether a guardian who already created
// proposals at the given instants may create another one now (sliding
// one-hour window).
func WithinCreationRate(createdAt []time.Time, now time.Time) bool {
	cutoff := now.Add(-CreationRateWindow)
	recent := 0
	for _, t := range createdAt {
		if t.After(cutoff) && !t.After(now) {
			recent++
		}
	}
	return recent < MaxCreationsPerWindow
}
