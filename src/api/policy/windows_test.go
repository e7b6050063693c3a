package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestWindowArithmetic(t *testing.T) {
	require.Equal(t, anchor.Add(72*time.Hour), Expiry(anchor))
	require.Equal(t, anchor.Add(48*time.Hour), DisputeDeadline(anchor))
	require.Equal(t, anchor.Add(48*time.Hour), CoolingEnd(anchor))
	require.Equal(t, anchor.Add(7*24*time.Hour), ReproposalAllowedAt(anchor))
}

func TestRemainingClampsAtZero(t *testing.T) {
	deadline := anchor.Add(time.Hour)
	require.Equal(t, time.Hour, Remaining(deadline, anchor))
	require.Equal(t, time.Duration(0), Remaining(deadline, deadline))
	require.Equal(t, time.Duration(0), Remaining(deadline, deadline.Add(time.Minute)))
}
