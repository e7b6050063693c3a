package policy

import "time"

// Fixed policy windows. These are policy constants, not configuration;
// main never overrides them.
const (
	ResponseWindow     = 72 * time.Hour
	DisputeWindow      = 48 * time.Hour
	CoolingDuration    = 48 * time.Hour
	ReproposalCooldown = 7 * 24 * time.Hour

	MaxCreationsPerWindow = 10
	CreationRateWindow    = time.Hour
)

// Expiry is the deadline for the counter-guardian to respond to a pending
// proposal.
func Expiry(createdAt time.Time) time.Time {
	return createdAt.Add(ResponseWindow)
}

// DisputeDeadline is the last instant an auto-applied emergency increase
// may be disputed.
func DisputeDeadline(appliedAt time.Time) time.Time {
	return appliedAt.Add(DisputeWindow)
}

// CoolingEnd is when an approved protection decrease takes effect.
func CoolingEnd(startsAt time.Time) time.Time {
	return startsAt.Add(CoolingDuration)
}

// ReproposalAllowedAt is when a declined setting may be proposed again for
// the same child.
func ReproposalAllowedAt(declinedAt time.Time) time.Time {
	return declinedAt.Add(ReproposalCooldown)
}

// Remaining clamps deadline minus now at zero.
func Remaining(deadline, now time.Time) time.Duration {
	if r := deadline.Sub(now); r > 0 {
		return r
	}
	return 0
}
