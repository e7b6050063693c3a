package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/coparental/guardlink/src/api/data"
	"github.com/coparental/guardlink/src/api/policy"
	"github.com/coparental/guardlink/src/api/types"
	shareddata "github.com/coparental/guardlink/src/shared/data"
)

const maxMessageLen = 500

type Proposals struct {
	db        *gorm.DB
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewProposals(db *gorm.DB, rdb *redis.Client) Proposals {
	// Decline messages and dispute reasons are plain text; strip all markup.
	return Proposals{db: db, rdb: rdb, sanitizer: bluemonday.StrictPolicy()}
}

func (h Proposals) Create(c *gin.Context) {
	var req struct {
		ChildID       string          `json:"childId" binding:"required,uuid"`
		SettingType   string          `json:"settingType" binding:"required,max=32"`
		ProposedValue json.RawMessage `json:"proposedValue" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	guardianID := c.GetString("guardian")
	if _, err := data.AuthorizeGuardian(h.db, guardianID, req.ChildID); err != nil {
		h.fail(c, err)
		return
	}

	st := types.SettingType(req.SettingType)
	proposed, perr := policy.ParseValue(st, req.ProposedValue)
	if perr != nil {
		h.fail(c, perr)
		return
	}
	current, err := data.CurrentSettingValue(h.db, req.ChildID, st)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	p := policy.NewProposal(uuid.NewString(), req.ChildID, guardianID, st, current, proposed, now)
	if err := data.CreateProposal(h.db, p, now); err != nil {
		h.fail(c, err)
		return
	}

	log.Printf("Proposal %s created by %s (%s, %s)", p.ID, guardianID, p.SettingType, p.Status)
	h.publish(c, p, "proposal.created")
	c.JSON(http.StatusCreated, proposalJSON(p))
}

func (h Proposals) Respond(c *gin.Context) {
	var req struct {
		Action  string `json:"action" binding:"required,oneof=approve decline"`
		Message string `json:"message" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	message, ok := h.cleanText(req.Message)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid characters in message"})
		return
	}

	h.transition(c, func(p *types.Proposal, actorID string, now time.Time) *policy.Error {
		return policy.Respond(p, actorID, policy.ResponseAction(req.Action), message, now)
	}, policy.CodeAlreadyResponded)
}

func (h Proposals) Dispute(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	reason, ok := h.cleanText(req.Reason)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid characters in reason"})
		return
	}

	h.transition(c, func(p *types.Proposal, actorID string, now time.Time) *policy.Error {
		return policy.Dispute(p, actorID, reason, now)
	}, policy.CodeAlreadyResponded)
}

func (h Proposals) CancelCooling(c *gin.Context) {
	h.transition(c, func(p *types.Proposal, actorID string, now time.Time) *policy.Error {
		return policy.CancelCooling(p, actorID, now)
	}, policy.CodeCoolingAlreadyCancelled)
}

// ResolveDispute is the administrative resolution of a disputed emergency
// increase; guardians themselves cannot resolve.
func (h Proposals) ResolveDispute(c *gin.Context) {
	var req struct {
		Resolution string `json:"resolution" binding:"required,oneof=confirmed reverted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var admin types.Guardian
	if err := h.db.First(&admin, "id = ?", c.GetString("guardian")).Error; err != nil || !admin.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"err": "admin access required"})
		return
	}

	p, err := data.LoadProposal(h.db, c.Param("id"))
	if err != nil {
		h.failLoad(c, err)
		return
	}
	now := time.Now()
	if perr := policy.ResolveDispute(p, admin.ID, types.DisputeResolution(req.Resolution), now); perr != nil {
		h.fail(c, perr)
		return
	}
	if err := data.SaveTransition(h.db, p, now); err != nil {
		if errors.Is(err, data.ErrVersionConflict) {
			c.JSON(http.StatusConflict, gin.H{"err": "proposal was modified concurrently", "code": policy.CodeAlreadyResponded})
			return
		}
		h.fail(c, err)
		return
	}

	log.Printf("Dispute on proposal %s resolved: %s", p.ID, req.Resolution)
	h.publish(c, p, "proposal."+string(p.Status))
	c.JSON(http.StatusOK, proposalJSON(p))
}

func (h Proposals) Get(c *gin.Context) {
	p, err := data.LoadProposal(h.db, c.Param("id"))
	if err != nil {
		h.failLoad(c, err)
		return
	}
	if _, err := data.AuthorizeGuardian(h.db, c.GetString("guardian"), p.ChildID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalJSON(p))
}

func (h Proposals) ListByChild(c *gin.Context) {
	childID := c.Param("id")
	if _, err := data.AuthorizeGuardian(h.db, c.GetString("guardian"), childID); err != nil {
		h.fail(c, err)
		return
	}
	list, err := data.ListProposals(h.db, childID)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, proposalJSON(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"proposals": out})
}

// transition runs the load / guard / CAS-save cycle shared by the three
// guardian response endpoints. conflictCode is what a lost CAS race maps
// to on that endpoint.
func (h Proposals) transition(c *gin.Context, apply func(*types.Proposal, string, time.Time) *policy.Error, conflictCode policy.Code) {
	p, err := data.LoadProposal(h.db, c.Param("id"))
	if err != nil {
		h.failLoad(c, err)
		return
	}
	actorID := c.GetString("guardian")
	if _, err := data.AuthorizeGuardian(h.db, actorID, p.ChildID); err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	if perr := apply(p, actorID, now); perr != nil {
		h.fail(c, perr)
		return
	}
	if err := data.SaveTransition(h.db, p, now); err != nil {
		if errors.Is(err, data.ErrVersionConflict) {
			c.JSON(statusFor(conflictCode), gin.H{"err": "another guardian acted first", "code": conflictCode})
			return
		}
		h.fail(c, err)
		return
	}

	log.Printf("Proposal %s -> %s by %s", p.ID, p.Status, actorID)
	h.publish(c, p, "proposal."+string(p.Status))
	c.JSON(http.StatusOK, proposalJSON(p))
}

func (h Proposals) cleanText(s string) (string, bool) {
	s = h.sanitizer.Sanitize(s)
	if !utf8.ValidString(s) || len(s) > maxMessageLen {
		return "", false
	}
	return s, true
}

func (h Proposals) publish(c *gin.Context, p *types.Proposal, event string) {
	payload := map[string]interface{}{
		"event":       event,
		"proposal":    p.ID,
		"child":       p.ChildID,
		"setting":     string(p.SettingType),
		"proposed_by": p.ProposedBy,
		"status":      string(p.Status),
		"time":        time.Now().Unix(),
	}
	if base := data.GetSetting("frontend_url"); base != "" {
		payload["link"] = fmt.Sprintf("%s/proposals/%s", base, p.ID)
	}
	err := shareddata.PublishProposalEvent(context.Background(), h.rdb, payload)
	if err != nil {
		log.Printf("Failed to publish %s for proposal %s: %v", event, p.ID, err)
	}
}

func (h Proposals) failLoad(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found", "code": policy.CodeNotFound})
		return
	}
	h.fail(c, err)
}

func (h Proposals) fail(c *gin.Context, err error) {
	if code := policy.CodeOf(err); code != "" {
		c.JSON(statusFor(code), gin.H{"err": err.Error(), "code": code})
		return
	}
	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
}

func statusFor(code policy.Code) int {
	switch code {
	case policy.CodeNotFound:
		return http.StatusNotFound
	case policy.CodeNotGuardian, policy.CodeNotSharedCustody,
		policy.CodeCannotRespondOwn, policy.CodeCannotDisputeOwn:
		return http.StatusForbidden
	case policy.CodeProposalExpired, policy.CodeDisputeExpired,
		policy.CodeCoolingPeriodExpired:
		return http.StatusGone
	case policy.CodeAlreadyResponded, policy.CodeNotInCoolingPeriod,
		policy.CodeCoolingAlreadyCancelled:
		return http.StatusConflict
	case policy.CodeCooldownActive, policy.CodeRateLimit:
		return http.StatusTooManyRequests
	case policy.CodeInvalidSetting, policy.CodeInvalidValue:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func proposalJSON(p *types.Proposal) gin.H {
	out := gin.H{
		"id":                  p.ID,
		"childId":             p.ChildID,
		"proposedBy":          p.ProposedBy,
		"settingType":         p.SettingType,
		"currentValue":        p.CurrentValue,
		"proposedValue":       p.ProposedValue,
		"valueKind":           p.ValueKind,
		"status":              p.Status,
		"isEmergencyIncrease": p.IsEmergencyIncrease,
		"createdAt":           p.CreatedAt,
		"expiresAt":           p.ExpiresAt,
		"terminal":            p.Terminal(),
	}
	if p.AppliedAt != nil {
		out["appliedAt"] = *p.AppliedAt
	}
	if p.RespondedBy != nil {
		out["respondedBy"] = *p.RespondedBy
		out["respondedAt"] = p.RespondedAt
	}
	if p.DeclineMessage != "" {
		out["declineMessage"] = p.DeclineMessage
	}
	if p.Dispute != nil {
		d := gin.H{
			"disputedBy": p.Dispute.DisputedBy,
			"disputedAt": p.Dispute.DisputedAt,
		}
		if p.Dispute.Reason != "" {
			d["reason"] = p.Dispute.Reason
		}
		if p.Dispute.ResolvedAt != nil {
			d["resolvedAt"] = *p.Dispute.ResolvedAt
			d["resolution"] = p.Dispute.Resolution
			if p.Dispute.ResolvedBy != nil {
				d["resolvedBy"] = *p.Dispute.ResolvedBy
			}
		}
		out["dispute"] = d
	}
	if p.Cooling != nil {
		cp := gin.H{
			"startsAt": p.Cooling.StartsAt,
			"endsAt":   p.Cooling.EndsAt,
		}
		if p.Cooling.CancelledBy != nil {
			cp["cancelledBy"] = *p.Cooling.CancelledBy
			cp["cancelledAt"] = p.Cooling.CancelledAt
		}
		out["coolingPeriod"] = cp
	}
	return out
}
