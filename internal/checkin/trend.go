package checkin

// TrendRule parameterizes trend classification per metric: the dead band
// around the historical average, and which direction counts as progress.
// Body-weight style metrics set LowerIsBetter; overall scores do not.
type TrendRule struct {
	Delta         float64
	LowerIsBetter bool
}

// ScoreTrendRule is the rule for 0-100 check-in scores.
func ScoreTrendRule() TrendRule {
	return TrendRule{Delta: 5}
}

// WeightTrendRule is the rule for body-weight measurements, where a drop
// beyond the dead band is an improvement.
func WeightTrendRule(delta float64) TrendRule {
	return TrendRule{Delta: delta, LowerIsBetter: true}
}

// ClassifyTrend compares a current value against the average of its history.
// With no history the baseline is the current value itself, so the trend is
// always stable.
func ClassifyTrend(current float64, history []float64, rule TrendRule) Trend {
	if len(history) == 0 {
		return TrendStable
	}

	sum := 0.0
	for _, v := range history {
		sum += v
	}
	avg := sum / float64(len(history))

	diff := current - avg
	if rule.LowerIsBetter {
		diff = -diff
	}

	switch {
	case diff > rule.Delta:
		return TrendImproving
	case diff < -rule.Delta:
		return TrendDeclining
	default:
		return TrendStable
	}
}
