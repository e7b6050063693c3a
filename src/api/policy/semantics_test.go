package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coparental/guardlink/src/api/types"
)

func intVal(n int64) SettingValue {
	return SettingValue{Kind: types.KindInt, Int: n}
}

func strVal(s string) SettingValue {
	return SettingValue{Kind: types.KindString, Str: s}
}

var numericTypes = []types.SettingType{
	types.SettingMonitoringInterval,
	types.SettingRetentionPeriod,
	types.SettingAgeRestriction,
	types.SettingScreenTimeDaily,
	types.SettingScreenTimePerApp,
	types.SettingBedtimeStart,
	types.SettingBedtimeEnd,
}

func TestClassifyDirections(t *testing.T) {
	cases := []struct {
		st       types.SettingType
		from, to int64
		want     Direction
	}{
		// smaller monitoring interval = more frequent checks
		{types.SettingMonitoringInterval, 30, 15, Increase},
		{types.SettingMonitoringInterval, 30, 60, Decrease},
		// longer retention keeps evidence longer
		{types.SettingRetentionPeriod, 30, 90, Increase},
		{types.SettingRetentionPeriod, 30, 7, Decrease},
		{types.SettingAgeRestriction, 13, 16, Increase},
		{types.SettingAgeRestriction, 13, 10, Decrease},
		{types.SettingScreenTimeDaily, 120, 60, Increase},
		{types.SettingScreenTimeDaily, 60, 120, Decrease},
		{types.SettingScreenTimePerApp, 60, 30, Increase},
		{types.SettingScreenTimePerApp, 30, 45, Decrease},
		// bedtime start in minutes past midnight: earlier is stricter
		{types.SettingBedtimeStart, 1260, 1200, Increase},
		{types.SettingBedtimeStart, 1260, 1320, Decrease},
		// bedtime end: later wake is stricter
		{types.SettingBedtimeEnd, 420, 450, Increase},
		{types.SettingBedtimeEnd, 420, 390, Decrease},
	}
	for _, tc := range cases {
		got := Classify(tc.st, intVal(tc.from), intVal(tc.to))
		require.Equalf(t, tc.want, got, "%s %d->%d", tc.st, tc.from, tc.to)
	}
}

func TestClassifyEqualValuesNeutral(t *testing.T) {
	for _, st := range numericTypes {
		require.Equal(t, Neutral, Classify(st, intVal(42), intVal(42)), string(st))
	}
}

func TestClassifyCrisisAllowlistAlwaysIncrease(t *testing.T) {
	require.Equal(t, Increase, Classify(types.SettingCrisisAllowlist, strVal("988"), strVal("sos.example.org")))
	require.Equal(t, Increase, Classify(types.SettingCrisisAllowlist, strVal("x"), strVal("x")))
	require.False(t, RequiresCooling(types.SettingCrisisAllowlist, strVal("a"), strVal("b")))
}

func TestClassifyNonNumericNeutral(t *testing.T) {
	// Values of the wrong kind never auto-apply and never cool.
	for _, st := range numericTypes {
		require.Equal(t, Neutral, Classify(st, strVal("a"), strVal("b")), string(st))
		require.False(t, RequiresCooling(st, strVal("a"), strVal("b")), string(st))
	}
}

// For any two distinct numeric values, exactly one of increase/decrease
// holds, and swapping the operands inverts the result.
func TestClassifyInversionProperty(t *testing.T) {
	grid := []int64{0, 1, 5, 15, 30, 60, 120, 390, 420, 1200, 1260, 1439}
	for _, st := range numericTypes {
		for _, a := range grid {
			for _, b := range grid {
				if a == b {
					continue
				}
				fwd := Classify(st, intVal(a), intVal(b))
				rev := Classify(st, intVal(b), intVal(a))
				require.NotEqualf(t, Neutral, fwd, "%s %d->%d", st, a, b)
				if fwd == Increase {
					require.Equalf(t, Decrease, rev, "%s %d->%d", st, a, b)
				} else {
					require.Equalf(t, Increase, rev, "%s %d->%d", st, a, b)
				}
			}
		}
	}
}

// IsEmergencyIncrease and RequiresCooling are written as independent
// switches; prove exhaustively that they are exact inverses for every
// numeric type and distinct value pair, and never both true.
func TestEmergencyAndCoolingAreInverses(t *testing.T) {
	grid := []int64{0, 1, 5, 15, 30, 60, 120, 390, 420, 1200, 1260, 1439}
	for _, st := range numericTypes {
		for _, a := range grid {
			for _, b := range grid {
				emergency := IsEmergencyIncrease(st, intVal(a), intVal(b))
				cooling := RequiresCooling(st, intVal(a), intVal(b))
				require.Falsef(t, emergency && cooling, "%s %d->%d both emergency and cooling", st, a, b)
				if a != b {
					require.Equalf(t, !emergency, cooling, "%s %d->%d not inverse", st, a, b)
				} else {
					require.False(t, emergency)
					require.False(t, cooling)
				}
			}
		}
	}
}

func TestClassifyUnknownTypePanics(t *testing.T) {
	require.Panics(t, func() {
		Classify(types.SettingType("shoe_size"), intVal(1), intVal(2))
	})
	require.Panics(t, func() {
		RequiresCooling(types.SettingType("shoe_size"), intVal(1), intVal(2))
	})
}
