package policy

import (
	"fmt"
	"time"

	"github.com/coparental/guardlink/src/api/types"
)

// ResponseAction is the counter-guardian's answer to a pending proposal.
type ResponseAction string

const (
	ActionApprove ResponseAction = "approve"
	ActionDecline ResponseAction = "decline"
)

// NewProposal builds a proposal in its initial state. Emergency increases
// go live immediately and open the dispute window; everything else waits
// pending for the counter-guardian.
func NewProposal(id, childID, proposedBy string, st types.SettingType, current, proposed SettingValue, now time.Time) *types.Proposal {
	p := &types.Proposal{
		ID:            id,
		ChildID:       childID,
		ProposedBy:    proposedBy,
		SettingType:   st,
		ValueKind:     current.Kind,
		CurrentValue:  current.Encode(),
		ProposedValue: proposed.Encode(),
		CreatedAt:     now,
		ExpiresAt:     Expiry(now),
	}
	if Classify(st, current, proposed) == Increase {
		applied := now
		p.Status = types.StatusAutoApplied
		p.IsEmergencyIncrease = true
		p.AppliedAt = &applied
	} else {
		p.Status = types.StatusPending
	}
	return p
}

// Respond applies the counter-guardian's approve or decline to a pending
// proposal. Approving a protection decrease opens a cooling period instead
// of applying the change. The proposal is left untouched when any guard
// fails.
func Respond(p *types.Proposal, actorID string, action ResponseAction, message string, now time.Time) *Error {
	if actorID == p.ProposedBy {
		return errf(CodeCannotRespondOwn, "guardians cannot respond to their own proposal")
	}
	if p.Status != types.StatusPending {
		if p.Status == types.StatusExpired {
			return errf(CodeProposalExpired, "proposal expired at %s", p.ExpiresAt.UTC().Format(time.RFC3339))
		}
		return errf(CodeAlreadyResponded, "proposal is %s", p.Status)
	}
	if !now.Before(p.ExpiresAt) {
		return errf(CodeProposalExpired, "response window closed at %s", p.ExpiresAt.UTC().Format(time.RFC3339))
	}

	responded := now
	switch action {
	case ActionDecline:
		p.Status = types.StatusDeclined
		p.RespondedBy = &actorID
		p.RespondedAt = &responded
		p.DeclineMessage = message
	case ActionApprove:
		p.RespondedBy = &actorID
		p.RespondedAt = &responded
		if requiresCoolingFor(p) {
			p.Status = types.StatusCoolingInProgress
			p.Cooling = &types.CoolingPeriod{
				ProposalID: p.ID,
				StartsAt:   now,
				EndsAt:     CoolingEnd(now),
			}
		} else {
			applied := now
			p.Status = types.StatusApproved
			p.AppliedAt = &applied
		}
	default:
		panic(fmt.Sprintf("policy: unknown response action %q", action))
	}
	return nil
}

// Dispute contests an auto-applied emergency increase within its 48h
// window.
func Dispute(p *types.Proposal, actorID, reason string, now time.Time) *Error {
	if actorID == p.ProposedBy {
		return errf(CodeCannotDisputeOwn, "guardians cannot dispute their own proposal")
	}
	if p.Status != types.StatusAutoApplied {
		return errf(CodeAlreadyResponded, "proposal is %s", p.Status)
	}
	if p.Dispute != nil {
		return errf(CodeAlreadyResponded, "dispute already resolved as %s", p.Dispute.Resolution)
	}
	if p.AppliedAt == nil {
		panic("policy: auto_applied proposal without appliedAt")
	}
	if !now.Before(DisputeDeadline(*p.AppliedAt)) {
		return errf(CodeDisputeExpired, "dispute window closed at %s", DisputeDeadline(*p.AppliedAt).UTC().Format(time.RFC3339))
	}

	p.Status = types.StatusDisputed
	p.Dispute = &types.ProposalDispute{
		ProposalID: p.ID,
		DisputedBy: actorID,
		DisputedAt: now,
		Reason:     reason,
	}
	return nil
}

// ResolveDispute records the administrative outcome of a dispute. A
// resolved dispute is final: the sub-record keeps who resolved it and
// how, and the proposal can never be disputed again. Confirmed leaves
// the change applied; reverted restores the prior value (the caller
// writes the restored setting).
func ResolveDispute(p *types.Proposal, resolvedBy string, resolution types.DisputeResolution, now time.Time) *Error {
	if p.Status != types.StatusDisputed || p.Dispute == nil {
		return errf(CodeNotFound, "no open dispute on this proposal")
	}
	resolved := now
	p.Dispute.ResolvedBy = &resolvedBy
	p.Dispute.ResolvedAt = &resolved
	p.Dispute.Resolution = resolution
	switch resolution {
	case types.ResolutionConfirmed:
		p.Status = types.StatusAutoApplied
	case types.ResolutionReverted:
		p.Status = types.StatusReverted
	default:
		panic(fmt.Sprintf("policy: unknown dispute resolution %q", resolution))
	}
	return nil
}

// CancelCooling stops an in-progress cooling period before the change
// takes effect. Either party to the proposal may cancel.
func CancelCooling(p *types.Proposal, actorID string, now time.Time) *Error {
	if p.Status == types.StatusCoolingCancelled {
		return errf(CodeCoolingAlreadyCancelled, "cooling period already cancelled")
	}
	if p.Status != types.StatusCoolingInProgress || p.Cooling == nil {
		return errf(CodeNotInCoolingPeriod, "proposal is %s", p.Status)
	}
	if actorID != p.ProposedBy && (p.RespondedBy == nil || actorID != *p.RespondedBy) {
		return errf(CodeNotGuardian, "only a party to the proposal may cancel its cooling period")
	}
	if !now.Before(p.Cooling.EndsAt) {
		return errf(CodeCoolingPeriodExpired, "cooling period ended at %s", p.Cooling.EndsAt.UTC().Format(time.RFC3339))
	}

	cancelled := now
	p.Status = types.StatusCoolingCancelled
	p.Cooling.CancelledBy = &actorID
	p.Cooling.CancelledAt = &cancelled
	return nil
}

// SweepExpire moves a pending proposal past its response window to
// expired. Idempotent: reports false when there is nothing to do.
func SweepExpire(p *types.Proposal, now time.Time) bool {
	if p.Status != types.StatusPending || now.Before(p.ExpiresAt) {
		return false
	}
	p.Status = types.StatusExpired
	return true
}

// SweepCompleteCooling finishes an elapsed cooling period; the change
// takes effect at completion. Idempotent.
func SweepCompleteCooling(p *types.Proposal, now time.Time) bool {
	if p.Status != types.StatusCoolingInProgress || p.Cooling == nil || now.Before(p.Cooling.EndsAt) {
		return false
	}
	applied := now
	p.Status = types.StatusCoolingCompleted
	p.AppliedAt = &applied
	return true
}

func requiresCoolingFor(p *types.Proposal) bool {
	return RequiresCooling(p.SettingType, mustDecode(p.ValueKind, p.CurrentValue), mustDecode(p.ValueKind, p.ProposedValue))
}

func mustDecode(kind types.ValueKind, s string) SettingValue {
	v, err := DecodeValue(kind, s)
	if err != nil {
		panic("policy: " + err.Error())
	}
	return v
}
