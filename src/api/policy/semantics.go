package policy

import (
	"fmt"

	"github.com/coparental/guardlink/src/api/types"
)

// Direction of a proposed change relative to child protection.
type Direction int

const (
	Neutral Direction = iota
	Increase
	Decrease
)

func (d Direction) String() string {
	switch d {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	}
	return "neutral"
}

// Classify decides whether changing a setting from current to proposed
// increases or decreases protection. Direction is setting-specific:
// a smaller monitoring interval means more frequent checks (increase),
// while a smaller retention period keeps evidence for less time
// (decrease). Non-numeric values outside the crisis allowlist are
// conservatively neutral: they go through ordinary dual approval with no
// immediate effect either way.
func Classify(st types.SettingType, current, proposed SettingValue) Direction {
	if st == types.SettingCrisisAllowlist {
		// Allowlist additions are always protective.
		return Increase
	}
	if current.Kind != types.KindInt || proposed.Kind != types.KindInt {
		return Neutral
	}
	if current.Int == proposed.Int {
		return Neutral
	}
	switch st {
	case types.SettingMonitoringInterval, types.SettingScreenTimeDaily,
		types.SettingScreenTimePerApp, types.SettingBedtimeStart:
		// Smaller is stricter: shorter interval, lower allowance,
		// earlier bedtime.
		if proposed.Int < current.Int {
			return Increase
		}
		return Decrease
	case types.SettingRetentionPeriod, types.SettingAgeRestriction,
		types.SettingBedtimeEnd:
		// Larger is stricter: longer retention, higher age gate,
		// later wake.
		if proposed.Int > current.Int {
			return Increase
		}
		return Decrease
	}
	panic(fmt.Sprintf("policy: classify of unknown setting type %q", st))
}

// IsEmergencyIncrease reports whether the change applies immediately,
// subject to the dispute window.
func IsEmergencyIncrease(st types.SettingType, current, proposed SettingValue) bool {
	return Classify(st, current, proposed) == Increase
}

// RequiresCooling reports whether an approved change must sit out the
// cooling period before taking effect. Kept as its own switch rather than
// !IsEmergencyIncrease so each direction table reads on its own;
// semantics_test.go proves the two are exact inverses for non-equal
// numeric values.
func RequiresCooling(st types.SettingType, current, proposed SettingValue) bool {
	if st == types.SettingCrisisAllowlist {
		return false
	}
	if current.Kind != types.KindInt || proposed.Kind != types.KindInt {
		return false
	}
	if current.Int == proposed.Int {
		return false
	}
	switch st {
	case types.SettingMonitoringInterval, types.SettingScreenTimeDaily,
		types.SettingScreenTimePerApp, types.SettingBedtimeStart:
		return proposed.Int > current.Int
	case types.SettingRetentionPeriod, types.SettingAgeRestriction,
		types.SettingBedtimeEnd:
		return proposed.Int < current.Int
	}
	panic(fmt.Sprintf("policy: cooling check of unknown setting type %q", st))
}
