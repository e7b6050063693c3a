package policy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/coparental/guardlink/src/api/types"
)

const maxStringValueLen = 256

// SettingValue is the tagged value variant carried by proposals. Exactly
// one of the payload fields is meaningful, selected by Kind.
type SettingValue struct {
	Kind types.ValueKind
	Int  int64
	Str  string
	Bool bool
}

// KindFor returns the fixed value kind of a setting type.
func KindFor(st types.SettingType) (types.ValueKind, bool) {
	switch st {
	case types.SettingMonitoringInterval, types.SettingRetentionPeriod,
		types.SettingAgeRestriction, types.SettingScreenTimeDaily,
		types.SettingScreenTimePerApp, types.SettingBedtimeStart,
		types.SettingBedtimeEnd:
		return types.KindInt, true
	case types.SettingCrisisAllowlist:
		return types.KindString, true
	}
	return "", false
}

// ParseValue validates raw JSON against the setting type's value domain.
// This is the only place user-supplied values are parsed; everything past
// this boundary works with SettingValue.
func ParseValue(st types.SettingType, raw json.RawMessage) (SettingValue, *Error) {
	kind, ok := KindFor(st)
	if !ok {
		return SettingValue{}, errf(CodeInvalidSetting, "unknown setting type %q", st)
	}
	switch kind {
	case types.KindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return SettingValue{}, errf(CodeInvalidValue, "%s requires an integer value", st)
		}
		if n < 0 {
			return SettingValue{}, errf(CodeInvalidValue, "%s value must be non-negative", st)
		}
		return SettingValue{Kind: types.KindInt, Int: n}, nil
	case types.KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return SettingValue{}, errf(CodeInvalidValue, "%s requires a string value", st)
		}
		if s == "" || len(s) > maxStringValueLen || !utf8.ValidString(s) {
			return SettingValue{}, errf(CodeInvalidValue, "%s value must be 1-%d valid characters", st, maxStringValueLen)
		}
		return SettingValue{Kind: types.KindString, Str: s}, nil
	case types.KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return SettingValue{}, errf(CodeInvalidValue, "%s requires a boolean value", st)
		}
		return SettingValue{Kind: types.KindBool, Bool: b}, nil
	}
	panic(fmt.Sprintf("policy: unhandled value kind %q", kind))
}

// Encode renders the value for storage in a 256-char column.
func (v SettingValue) Encode() string {
	switch v.Kind {
	case types.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case types.KindString:
		return v.Str
	case types.KindBool:
		return strconv.FormatBool(v.Bool)
	}
	panic(fmt.Sprintf("policy: encode of unknown value kind %q", v.Kind))
}

// DecodeValue reverses Encode. A failure here means a corrupt row, which
// is not a user-facing condition.
func DecodeValue(kind types.ValueKind, s string) (SettingValue, error) {
	switch kind {
	case types.KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return SettingValue{}, fmt.Errorf("decode int value %q: %w", s, err)
		}
		return SettingValue{Kind: types.KindInt, Int: n}, nil
	case types.KindString:
		return SettingValue{Kind: types.KindString, Str: s}, nil
	case types.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return SettingValue{}, fmt.Errorf("decode bool value %q: %w", s, err)
		}
		return SettingValue{Kind: types.KindBool, Bool: b}, nil
	}
	return SettingValue{}, fmt.Errorf("decode value of unknown kind %q", kind)
}

func (v SettingValue) Equal(o SettingValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case types.KindInt:
		return v.Int == o.Int
	case types.KindString:
		return v.Str == o.Str
	case types.KindBool:
		return v.Bool == o.Bool
	}
	return false
}

// DefaultValue is the value assumed for a setting the family has never
// configured, used as currentValue for a first proposal.
func DefaultValue(st types.SettingType) SettingValue {
	switch st {
	case types.SettingMonitoringInterval:
		return SettingValue{Kind: types.KindInt, Int: 60} // minutes
	case types.SettingRetentionPeriod:
		return SettingValue{Kind: types.KindInt, Int: 30} // days
	case types.SettingAgeRestriction:
		return SettingValue{Kind: types.KindInt, Int: 13}
	case types.SettingScreenTimeDaily:
		return SettingValue{Kind: types.KindInt, Int: 120} // minutes
	case types.SettingScreenTimePerApp:
		return SettingValue{Kind: types.KindInt, Int: 60} // minutes
	case types.SettingBedtimeStart:
		return SettingValue{Kind: types.KindInt, Int: 1260} // 21:00, minutes past midnight
	case types.SettingBedtimeEnd:
		return SettingValue{Kind: types.KindInt, Int: 420} // 07:00
	case types.SettingCrisisAllowlist:
		return SettingValue{Kind: types.KindString, Str: "988"} // crisis lifeline
	}
	panic(fmt.Sprintf("policy: default for unknown setting type %q", st))
}
