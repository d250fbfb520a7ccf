package database

import (
	"fmt"
	"strings"
	"testing"

	"coinpilot/internal/risk"
)

// The risk_profiles column defaults must agree with the default profile so
// that rows created outside the repository carry the same settings.
func TestRiskProfileSchemaDefaultsMatchDefaultProfile(t *testing.T) {
	var ddl string
	for _, m := range migrations {
		if strings.Contains(m, "CREATE TABLE IF NOT EXISTS risk_profiles") {
			ddl = m
			break
		}
	}
	if ddl == "" {
		t.Fatal("risk_profiles migration not found")
	}

	def := risk.DefaultProfile("any")
	boolSQL := func(v bool) string {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}

	expectations := map[string]string{
		"tolerance":              fmt.Sprintf("DEFAULT '%s'", def.Tolerance),
		"max_position_size_pct":  fmt.Sprintf("DEFAULT %g", def.MaxPositionSizePct),
		"max_open_positions":     fmt.Sprintf("DEFAULT %d", def.MaxOpenPositions),
		"min_confidence":         fmt.Sprintf("DEFAULT %g", def.MinConfidence),
		"use_limit_orders":       "DEFAULT " + boolSQL(def.UseLimitOrders),
		"use_stop_loss":          "DEFAULT " + boolSQL(def.UseStopLoss),
		"use_take_profit":        "DEFAULT " + boolSQL(def.UseTakeProfit),
		"auto_trading_enabled":   "DEFAULT " + boolSQL(def.AutoTradingEnabled),
		"slippage_tolerance_pct": fmt.Sprintf("DEFAULT %g", def.SlippageTolerancePct),
	}

	lines := strings.Split(ddl, "\n")
	for column, want := range expectations {
		found := false
		for _, line := range lines {
			if !strings.Contains(line, column+" ") {
				continue
			}
			found = true
			if !strings.Contains(line, want) {
				t.Errorf("Column %s should carry %q, got %q", column, want, strings.TrimSpace(line))
			}
			break
		}
		if !found {
			t.Errorf("Column %s not found in risk_profiles schema", column)
		}
	}
}
