package risk

// ProtectiveLevels are the stop-loss and take-profit prices attached to an
// order when the profile enables them. A zero value means no level.
type ProtectiveLevels struct {
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// LevelsFor computes protective order levels for an entry price according
// to the profile's stop-loss / take-profit percentages. SELL entries
// mirror the offsets.
func LevelsFor(profile Profile, side Side, entryPrice float64) ProtectiveLevels {
	if entryPrice <= 0 {
		return ProtectiveLevels{}
	}

	var levels ProtectiveLevels
	direction := 1.0
	if side == SideSell {
		direction = -1.0
	}

	if profile.UseStopLoss && profile.StopLossPct > 0 {
		levels.StopLoss = entryPrice * (1 - direction*profile.StopLossPct/100)
	}
	if profile.UseTakeProfit && profile.TakeProfitPct > 0 {
		levels.TakeProfit = entryPrice * (1 + direction*profile.TakeProfitPct/100)
	}

	return levels
}
