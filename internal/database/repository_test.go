package database

import (
	"testing"

	"coinpilot/internal/risk"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func strPtr(v string) *string     { return &v }

func TestMergeProfilePartialUpdate(t *testing.T) {
	base := risk.DefaultProfile("user-1")

	merged := MergeProfile(base, ProfileUpdate{
		MaxPositionSizePct: floatPtr(25),
		MaxOpenPositions:   intPtr(5),
		AutoTradingEnabled: boolPtr(true),
	})

	if merged.MaxPositionSizePct != 25 {
		t.Errorf("MaxPositionSizePct = %f, want 25", merged.MaxPositionSizePct)
	}
	if merged.MaxOpenPositions != 5 {
		t.Errorf("MaxOpenPositions = %d, want 5", merged.MaxOpenPositions)
	}
	if !merged.AutoTradingEnabled {
		t.Error("AutoTradingEnabled should be true")
	}

	// Untouched fields keep their defaults.
	if merged.MinConfidence != base.MinConfidence {
		t.Errorf("MinConfidence changed unexpectedly: %f", merged.MinConfidence)
	}
	if merged.Tolerance != base.Tolerance {
		t.Errorf("Tolerance changed unexpectedly: %s", merged.Tolerance)
	}
	if merged.StopLossPct != base.StopLossPct {
		t.Errorf("StopLossPct changed unexpectedly: %f", merged.StopLossPct)
	}
}

func TestMergeProfileEmptyUpdateIsIdentity(t *testing.T) {
	base := risk.DefaultProfile("user-1")
	base.AllowedSymbols = []string{"BTCUSDT"}

	merged := MergeProfile(base, ProfileUpdate{})

	if merged.MaxPositionSizePct != base.MaxPositionSizePct ||
		merged.MaxOpenPositions != base.MaxOpenPositions ||
		merged.DailyLossLimitPct != base.DailyLossLimitPct ||
		merged.MinConfidence != base.MinConfidence ||
		len(merged.AllowedSymbols) != 1 {
		t.Errorf("empty update should not change the profile: %+v", merged)
	}
}

func TestMergeProfileAllowlistReplacement(t *testing.T) {
	base := risk.DefaultProfile("user-1")
	base.AllowedSymbols = []string{"BTCUSDT", "ETHUSDT"}

	cleared := MergeProfile(base, ProfileUpdate{AllowedSymbols: &[]string{}})
	if len(cleared.AllowedSymbols) != 0 {
		t.Errorf("explicit empty allowlist should clear it, got %v", cleared.AllowedSymbols)
	}

	replaced := MergeProfile(base, ProfileUpdate{AllowedSymbols: &[]string{"SOLUSDT"}})
	if len(replaced.AllowedSymbols) != 1 || replaced.AllowedSymbols[0] != "SOLUSDT" {
		t.Errorf("allowlist should be replaced wholesale, got %v", replaced.AllowedSymbols)
	}
}

func TestMergedProfileValidation(t *testing.T) {
	base := risk.DefaultProfile("user-1")

	bad := MergeProfile(base, ProfileUpdate{MaxPositionSizePct: floatPtr(150)})
	if err := bad.Validate(); err == nil {
		t.Error("position size above 100 should fail validation")
	}

	badTolerance := MergeProfile(base, ProfileUpdate{Tolerance: strPtr("yolo")})
	if err := badTolerance.Validate(); err == nil {
		t.Error("unknown tolerance should fail validation")
	}

	good := MergeProfile(base, ProfileUpdate{Tolerance: strPtr("aggressive")})
	if err := good.Validate(); err != nil {
		t.Errorf("valid update failed validation: %v", err)
	}
}
