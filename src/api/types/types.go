package types

import "time"

// Safety setting types. Each type carries a fixed value kind; see
// policy.KindFor.
type SettingType string

const (
	SettingMonitoringInterval SettingType = "monitoring_interval"
	SettingRetentionPeriod    SettingType = "retention_period"
	SettingAgeRestriction     SettingType = "age_restriction"
	SettingScreenTimeDaily    SettingType = "screen_time_daily"
	SettingScreenTimePerApp   SettingType = "screen_time_per_app"
	SettingBedtimeStart       SettingType = "bedtime_start"
	SettingBedtimeEnd         SettingType = "bedtime_end"
	SettingCrisisAllowlist    SettingType = "crisis_allowlist"
)

type ValueKind string

const (
	KindInt    ValueKind = "int"
	KindString ValueKind = "string"
	KindBool   ValueKind = "bool"
)

type ProposalStatus string

const (
	StatusPending           ProposalStatus = "pending"
	StatusApproved          ProposalStatus = "approved"
	StatusDeclined          ProposalStatus = "declined"
	StatusExpired           ProposalStatus = "expired"
	StatusAutoApplied       ProposalStatus = "auto_applied"
	StatusDisputed          ProposalStatus = "disputed"
	StatusReverted          ProposalStatus = "reverted"
	StatusCoolingInProgress ProposalStatus = "cooling_in_progress"
	StatusCoolingCancelled  ProposalStatus = "cooling_cancelled"
	StatusCoolingCompleted  ProposalStatus = "cooling_completed"
)

type DisputeResolution string

const (
	ResolutionConfirmed DisputeResolution = "confirmed"
	ResolutionReverted  DisputeResolution = "reverted"
)

// Families
type Family struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"size:128;not null"`
	SharedCustody bool   `gorm:"default:false"`
	CreatedAt     time.Time
}

// Guardian accounts
type Guardian struct {
	ID           string `gorm:"primaryKey;size:36"`
	FamilyID     string `gorm:"size:36;index;not null"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"size:256;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	IsAdmin      bool   `gorm:"default:false"`
	CreatedAt    time.Time
}

// Children
type Child struct {
	ID        string `gorm:"primaryKey;size:36"`
	FamilyID  string `gorm:"size:36;index;not null"`
	Name      string `gorm:"size:128;not null"`
	CreatedAt time.Time
}

// Live per-child safety settings. Written only when a proposal applies.
type SafetySetting struct {
	ChildID     string      `gorm:"primaryKey;size:36"`
	SettingType SettingType `gorm:"primaryKey;size:32"`
	ValueKind   ValueKind   `gorm:"size:8;not null"`
	Value       string      `gorm:"size:256;not null"`
	UpdatedBy   string      `gorm:"size:36"`
	UpdatedAt   time.Time
}

// Proposals for safety setting changes. A proposal is an immutable audit
// record once terminal; Version backs the compare-and-swap on status
// transitions.
type Proposal struct {
	ID                  string         `gorm:"primaryKey;size:36"`
	ChildID             string         `gorm:"size:36;index:idx_child_setting;not null"`
	ProposedBy          string         `gorm:"size:36;index;not null"`
	SettingType         SettingType    `gorm:"size:32;index:idx_child_setting;not null"`
	ValueKind           ValueKind      `gorm:"size:8;not null"`
	CurrentValue        string         `gorm:"size:256;not null"`
	ProposedValue       string         `gorm:"size:256;not null"`
	Status              ProposalStatus `gorm:"size:32;index;not null"`
	IsEmergencyIncrease bool           `gorm:"default:false"`
	CreatedAt           time.Time
	ExpiresAt           time.Time
	AppliedAt           *time.Time
	RespondedBy         *string `gorm:"size:36"`
	RespondedAt         *time.Time
	DeclineMessage      string `gorm:"size:500"`
	Version             uint64 `gorm:"not null;default:0"`

	Dispute *ProposalDispute `gorm:"foreignKey:ProposalID"`
	Cooling *CoolingPeriod   `gorm:"foreignKey:ProposalID"`
}

// Dispute sub-record, present only once an emergency increase is disputed.
type ProposalDispute struct {
	ID         uint64 `gorm:"primaryKey"`
	ProposalID string `gorm:"size:36;uniqueIndex;not null"`
	DisputedBy string `gorm:"size:36;not null"`
	DisputedAt time.Time
	Reason     string  `gorm:"size:500"`
	ResolvedBy *string `gorm:"size:36"`
	ResolvedAt *time.Time
	Resolution DisputeResolution `gorm:"size:16"`
}

// Cooling sub-record, present only for approved protection-decreasing
// proposals.
type CoolingPeriod struct {
	ID          uint64 `gorm:"primaryKey"`
	ProposalID  string `gorm:"size:36;uniqueIndex;not null"`
	StartsAt    time.Time
	EndsAt      time.Time
	CancelledBy *string `gorm:"size:36"`
	CancelledAt *time.Time
}

// Runtime settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

// Terminal reports whether the proposal can never change again. An
// undisputed auto_applied proposal is terminal once its dispute window
// lapses, but that needs a clock; callers that care use the policy guards.
func (p *Proposal) Terminal() bool {
	switch p.Status {
	case StatusApproved, StatusDeclined, StatusExpired, StatusReverted,
		StatusCoolingCancelled, StatusCoolingCompleted:
		return true
	}
	return false
}
