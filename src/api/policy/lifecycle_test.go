package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coparental/guardlink/src/api/types"
)

const (
	guardianA = "a0000000-0000-0000-0000-000000000001"
	guardianB = "b0000000-0000-0000-0000-000000000002"
	guardianC = "c0000000-0000-0000-0000-000000000003"
	adminID   = "d0000000-0000-0000-0000-000000000004"
	childID   = "c1000000-0000-0000-0000-000000000010"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func newIntProposal(t *testing.T, st types.SettingType, from, to int64) *types.Proposal {
	t.Helper()
	return NewProposal("p-1", childID, guardianA, st, intVal(from), intVal(to), t0)
}

// Scenario: monitoring_interval 30 -> 15 is an emergency increase and goes
// live at creation.
func TestCreateEmergencyIncrease(t *testing.T) {
	p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
	require.Equal(t, types.StatusAutoApplied, p.Status)
	require.True(t, p.IsEmergencyIncrease)
	require.NotNil(t, p.AppliedAt)
	require.Equal(t, t0, *p.AppliedAt)
	require.Equal(t, t0.Add(ResponseWindow), p.ExpiresAt)
}

// Scenario: screen_time_daily 60 -> 120 weakens protection and waits
// pending.
func TestCreateDecreasePending(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	require.Equal(t, types.StatusPending, p.Status)
	require.False(t, p.IsEmergencyIncrease)
	require.Nil(t, p.AppliedAt)
	require.Equal(t, t0.Add(72*time.Hour), p.ExpiresAt)
}

// Scenario: approving a decrease opens a 48h cooling period instead of
// applying.
func TestApproveDecreaseOpensCooling(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	at := t0.Add(10 * time.Hour)
	require.Nil(t, Respond(p, guardianB, ActionApprove, "", at))
	require.Equal(t, types.StatusCoolingInProgress, p.Status)
	require.Nil(t, p.AppliedAt)
	require.NotNil(t, p.Cooling)
	require.Equal(t, at, p.Cooling.StartsAt)
	require.Equal(t, at.Add(48*time.Hour), p.Cooling.EndsAt)
	require.Equal(t, guardianB, *p.RespondedBy)
}

// Scenario: the proposer cancels the cooling period; the change never
// takes effect.
func TestCancelCoolingByProposer(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	require.Nil(t, Respond(p, guardianB, ActionApprove, "", t0.Add(10*time.Hour)))

	at := p.Cooling.StartsAt.Add(20 * time.Hour)
	require.Nil(t, CancelCooling(p, guardianA, at))
	require.Equal(t, types.StatusCoolingCancelled, p.Status)
	require.Equal(t, guardianA, *p.Cooling.CancelledBy)
	require.Equal(t, at, *p.Cooling.CancelledAt)
	require.Nil(t, p.AppliedAt)
}

// Scenario: nobody responds; the sweep expires the proposal at 73h.
func TestSweepExpiresPending(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	at := t0.Add(73 * time.Hour)
	require.True(t, SweepExpire(p, at))
	require.Equal(t, types.StatusExpired, p.Status)
	// second pass is a no-op
	require.False(t, SweepExpire(p, at))
}

// Scenario: the counter-guardian disputes the auto-applied change within
// the window.
func TestDisputeAutoApplied(t *testing.T) {
	p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
	at := p.AppliedAt.Add(10 * time.Hour)
	require.Nil(t, Dispute(p, guardianB, "too frequent", at))
	require.Equal(t, types.StatusDisputed, p.Status)
	require.NotNil(t, p.Dispute)
	require.Equal(t, guardianB, p.Dispute.DisputedBy)
	require.Equal(t, at, p.Dispute.DisputedAt)
}

func TestApproveNeutralAppliesImmediately(t *testing.T) {
	// Equal values classify neutral: ordinary dual approval, immediate
	// effect on approve, no cooling.
	p := newIntProposal(t, types.SettingAgeRestriction, 13, 13)
	require.Equal(t, types.StatusPending, p.Status)

	at := t0.Add(time.Hour)
	require.Nil(t, Respond(p, guardianB, ActionApprove, "", at))
	require.Equal(t, types.StatusApproved, p.Status)
	require.Nil(t, p.Cooling)
	require.Equal(t, at, *p.AppliedAt)
}

func TestDeclineRecordsMessage(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	at := t0.Add(2 * time.Hour)
	require.Nil(t, Respond(p, guardianB, ActionDecline, "not during exam week", at))
	require.Equal(t, types.StatusDeclined, p.Status)
	require.Equal(t, "not during exam week", p.DeclineMessage)
	require.Equal(t, at, *p.RespondedAt)
}

func TestRespondGuards(t *testing.T) {
	t.Run("own proposal", func(t *testing.T) {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		err := Respond(p, guardianA, ActionApprove, "", t0.Add(time.Hour))
		require.Equal(t, CodeCannotRespondOwn, err.Code)
		require.Equal(t, types.StatusPending, p.Status)
	})

	t.Run("after expiry, regardless of action", func(t *testing.T) {
		for _, action := range []ResponseAction{ActionApprove, ActionDecline} {
			p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
			err := Respond(p, guardianB, action, "", p.ExpiresAt)
			require.Equal(t, CodeProposalExpired, err.Code)
			require.Equal(t, types.StatusPending, p.Status)
			require.Nil(t, p.RespondedBy)
		}
	})

	t.Run("already responded", func(t *testing.T) {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		require.Nil(t, Respond(p, guardianB, ActionDecline, "", t0.Add(time.Hour)))
		err := Respond(p, guardianB, ActionApprove, "", t0.Add(2*time.Hour))
		require.Equal(t, CodeAlreadyResponded, err.Code)
		require.Equal(t, types.StatusDeclined, p.Status)
	})

	t.Run("expired by sweep", func(t *testing.T) {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		require.True(t, SweepExpire(p, p.ExpiresAt))
		err := Respond(p, guardianB, ActionApprove, "", p.ExpiresAt.Add(time.Hour))
		require.Equal(t, CodeProposalExpired, err.Code)
	})
}

func TestDisputeGuards(t *testing.T) {
	t.Run("own proposal", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		err := Dispute(p, guardianA, "", t0.Add(time.Hour))
		require.Equal(t, CodeCannotDisputeOwn, err.Code)
		require.Equal(t, types.StatusAutoApplied, p.Status)
	})

	t.Run("window closed", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		err := Dispute(p, guardianB, "", p.AppliedAt.Add(DisputeWindow))
		require.Equal(t, CodeDisputeExpired, err.Code)
		require.Equal(t, types.StatusAutoApplied, p.Status)
		require.Nil(t, p.Dispute)
	})

	t.Run("not auto-applied", func(t *testing.T) {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		err := Dispute(p, guardianB, "", t0.Add(time.Hour))
		require.Equal(t, CodeAlreadyResponded, err.Code)
	})

	t.Run("already disputed", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		require.Nil(t, Dispute(p, guardianB, "", t0.Add(time.Hour)))
		err := Dispute(p, guardianB, "", t0.Add(2*time.Hour))
		require.Equal(t, CodeAlreadyResponded, err.Code)
	})
}

func TestResolveDispute(t *testing.T) {
	t.Run("confirmed keeps change applied", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		require.Nil(t, Dispute(p, guardianB, "", t0.Add(time.Hour)))
		at := t0.Add(5 * time.Hour)
		require.Nil(t, ResolveDispute(p, adminID, types.ResolutionConfirmed, at))
		require.Equal(t, types.StatusAutoApplied, p.Status)
		require.Equal(t, at, *p.Dispute.ResolvedAt)
		require.Equal(t, adminID, *p.Dispute.ResolvedBy)
		require.Equal(t, types.ResolutionConfirmed, p.Dispute.Resolution)
	})

	t.Run("reverted restores prior value", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		require.Nil(t, Dispute(p, guardianB, "", t0.Add(time.Hour)))
		require.Nil(t, ResolveDispute(p, adminID, types.ResolutionReverted, t0.Add(5*time.Hour)))
		require.Equal(t, types.StatusReverted, p.Status)
	})

	t.Run("no open dispute", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		err := ResolveDispute(p, adminID, types.ResolutionConfirmed, t0)
		require.Equal(t, CodeNotFound, err.Code)
	})

	t.Run("resolution is final", func(t *testing.T) {
		p := newIntProposal(t, types.SettingMonitoringInterval, 30, 15)
		require.Nil(t, Dispute(p, guardianB, "first", t0.Add(time.Hour)))
		at := t0.Add(2 * time.Hour)
		require.Nil(t, ResolveDispute(p, adminID, types.ResolutionConfirmed, at))

		// still inside the original 48h dispute window
		err := Dispute(p, guardianB, "second", t0.Add(3*time.Hour))
		require.NotNil(t, err)
		require.Equal(t, CodeAlreadyResponded, err.Code)
		require.Equal(t, types.StatusAutoApplied, p.Status)
		require.Equal(t, "first", p.Dispute.Reason)
		require.Equal(t, at, *p.Dispute.ResolvedAt)
		require.Equal(t, types.ResolutionConfirmed, p.Dispute.Resolution)
	})
}

func TestCancelCoolingGuards(t *testing.T) {
	cooled := func(t *testing.T) *types.Proposal {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		require.Nil(t, Respond(p, guardianB, ActionApprove, "", t0.Add(time.Hour)))
		return p
	}

	t.Run("responder may cancel", func(t *testing.T) {
		p := cooled(t)
		require.Nil(t, CancelCooling(p, guardianB, p.Cooling.StartsAt.Add(time.Hour)))
		require.Equal(t, types.StatusCoolingCancelled, p.Status)
	})

	t.Run("third party may not", func(t *testing.T) {
		p := cooled(t)
		err := CancelCooling(p, guardianC, p.Cooling.StartsAt.Add(time.Hour))
		require.Equal(t, CodeNotGuardian, err.Code)
		require.Equal(t, types.StatusCoolingInProgress, p.Status)
	})

	t.Run("after cooling end", func(t *testing.T) {
		p := cooled(t)
		err := CancelCooling(p, guardianA, p.Cooling.EndsAt)
		require.Equal(t, CodeCoolingPeriodExpired, err.Code)
	})

	t.Run("already cancelled", func(t *testing.T) {
		p := cooled(t)
		require.Nil(t, CancelCooling(p, guardianA, p.Cooling.StartsAt.Add(time.Hour)))
		err := CancelCooling(p, guardianB, p.Cooling.StartsAt.Add(2*time.Hour))
		require.Equal(t, CodeCoolingAlreadyCancelled, err.Code)
	})

	t.Run("not in cooling", func(t *testing.T) {
		p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
		err := CancelCooling(p, guardianA, t0.Add(time.Hour))
		require.Equal(t, CodeNotInCoolingPeriod, err.Code)
	})
}

func TestSweepCompleteCooling(t *testing.T) {
	p := newIntProposal(t, types.SettingScreenTimeDaily, 60, 120)
	require.Nil(t, Respond(p, guardianB, ActionApprove, "", t0.Add(time.Hour)))

	// before the end: nothing to do
	require.False(t, SweepCompleteCooling(p, p.Cooling.EndsAt.Add(-time.Minute)))
	require.Equal(t, types.StatusCoolingInProgress, p.Status)

	at := p.Cooling.EndsAt
	require.True(t, SweepCompleteCooling(p, at))
	require.Equal(t, types.StatusCoolingCompleted, p.Status)
	require.Equal(t, at, *p.AppliedAt)

	// idempotent
	require.False(t, SweepCompleteCooling(p, at.Add(time.Hour)))
	require.Equal(t, types.StatusCoolingCompleted, p.Status)
}
