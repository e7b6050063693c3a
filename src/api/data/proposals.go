package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coparental/guardlink/src/api/policy"
	"github.com/coparental/guardlink/src/api/types"
)

// ErrVersionConflict means another writer won the compare-and-swap; the
// caller maps it to already-responded (or the cooling equivalent).
var ErrVersionConflict = errors.New("proposal was modified concurrently")

// LoadProposal fetches a proposal with its optional sub-records.
func LoadProposal(db *gorm.DB, id string) (*types.Proposal, error) {
	var p types.Proposal
	err := db.Preload("Dispute").Preload("Cooling").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProposals returns a child's proposals, newest first.
func ListProposals(db *gorm.DB, childID string) ([]types.Proposal, error) {
	var out []types.Proposal
	err := db.Preload("Dispute").Preload("Cooling").
		Where("child_id = ?", childID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateProposal inserts a new proposal after re-checking the reproposal
// cooldown and the creation rate limit inside the transaction, so two
// racing creations cannot both slip past the guard.
func CreateProposal(db *gorm.DB, p *types.Proposal, now time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var history []types.Proposal
		err := tx.Where("child_id = ? AND setting_type = ? AND status = ?",
			p.ChildID, p.SettingType, types.StatusDeclined).
			Order("responded_at desc").Limit(1).Find(&history).Error
		if err != nil {
			return err
		}
		if perr := policy.CanPropose(history, now); perr != nil {
			return perr
		}

		var createdAt []time.Time
		err = tx.Model(&types.Proposal{}).
			Where("proposed_by = ? AND created_at > ?", p.ProposedBy, now.Add(-policy.CreationRateWindow)).
			Pluck("created_at", &createdAt).Error
		if err != nil {
			return err
		}
		if !policy.WithinCreationRate(createdAt, now) {
			return &policy.Error{Code: policy.CodeRateLimit, Message: "too many proposals created in the last hour"}
		}

		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return applyEffect(tx, p, now)
	})
}

// SaveTransition persists a guarded transition as a single CAS on the
// proposal row: the update only lands if the version is unchanged since
// the load. Sub-records ride in the same transaction, and the live
// setting is written when the transition applies or reverts the change.
func SaveTransition(db *gorm.DB, p *types.Proposal, now time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND version = ?", p.ID, p.Version).
			Updates(map[string]interface{}{
				"status":          p.Status,
				"responded_by":    p.RespondedBy,
				"responded_at":    p.RespondedAt,
				"decline_message": p.DeclineMessage,
				"applied_at":      p.AppliedAt,
				"version":         p.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		p.Version++

		if p.Dispute != nil {
			if err := tx.Save(p.Dispute).Error; err != nil {
				return err
			}
		}
		if p.Cooling != nil {
			if err := tx.Save(p.Cooling).Error; err != nil {
				return err
			}
		}
		return applyEffect(tx, p, now)
	})
}

// applyEffect writes the live setting for statuses where the change is in
// effect, and restores the prior value when a live change is reverted.
// cooling_cancelled needs no write: the change never took effect.
func applyEffect(tx *gorm.DB, p *types.Proposal, now time.Time) error {
	switch p.Status {
	case types.StatusAutoApplied, types.StatusApproved, types.StatusCoolingCompleted:
		return writeSetting(tx, p, p.ProposedValue, now)
	case types.StatusReverted:
		return writeSetting(tx, p, p.CurrentValue, now)
	}
	return nil
}

// effectingActor is who the settings audit trail credits for a write: the
// approver for approvals and completed cooling periods, the resolver for
// an administrative revert, the proposer for an emergency auto-apply.
func effectingActor(p *types.Proposal) string {
	switch p.Status {
	case types.StatusApproved, types.StatusCoolingCompleted:
		if p.RespondedBy != nil {
			return *p.RespondedBy
		}
	case types.StatusReverted:
		if p.Dispute != nil && p.Dispute.ResolvedBy != nil {
			return *p.Dispute.ResolvedBy
		}
	}
	return p.ProposedBy
}

func settingRow(p *types.Proposal, value string, now time.Time) types.SafetySetting {
	return types.SafetySetting{
		ChildID:     p.ChildID,
		SettingType: p.SettingType,
		ValueKind:   p.ValueKind,
		Value:       value,
		UpdatedBy:   effectingActor(p),
		UpdatedAt:   now,
	}
}

func writeSetting(tx *gorm.DB, p *types.Proposal, value string, now time.Time) error {
	setting := settingRow(p, value, now)
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&setting).Error
}

// CurrentSettingValue reads the live value for (child, settingType),
// falling back to the policy default when the family never set one.
func CurrentSettingValue(db *gorm.DB, childID string, st types.SettingType) (policy.SettingValue, error) {
	var row types.SafetySetting
	err := db.First(&row, "child_id = ? AND setting_type = ?", childID, st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.DefaultValue(st), nil
	}
	if err != nil {
		return policy.SettingValue{}, err
	}
	return policy.DecodeValue(row.ValueKind, row.Value)
}
