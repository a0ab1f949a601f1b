package checkin

import "strings"

const (
	// DefaultQuestionWeight applies when a question configures no weight.
	DefaultQuestionWeight = 5.0

	minScore     = 1.0
	maxScore     = 10.0
	neutralScore = 5.0

	yesPositiveScore = 8.0
	yesNegativeScore = 3.0
)

// ScoreAnswer converts one answered question into a sub-score in [0,10] plus
// the weight it carries in the submission total. Scoring is total: malformed
// or out-of-range input degrades to a zero score, never an error, because the
// engine runs against historical data whose questions may have been edited or
// deleted since.
func ScoreAnswer(q Question, a Answer) AnnotatedResponse {
	resp := AnnotatedResponse{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Type:         q.Type,
		Value:        a.Value,
		Comment:      a.Comment,
	}
	if isUnanswered(a.Value) {
		return resp
	}
	resp.Answered = true
	resp.Weight = q.EffectiveWeight()

	switch q.Type {
	case TypeScale, TypeRating:
		if v, ok := numericValue(a.Value); ok && v >= minScore && v <= maxScore {
			resp.Score = v
		}

	case TypeNumber:
		if v, ok := numericValue(a.Value); ok {
			if v >= 0 && v <= 100 {
				resp.Score = minScore + (v/100)*(maxScore-minScore)
			} else {
				resp.Score = clamp(v/10, minScore, maxScore)
			}
		}

	case TypeMultipleChoice, TypeSelect:
		idx, opt := matchOption(q.Options, a.Value)
		if idx < 0 {
			// A selection that matches no current option cannot be placed on
			// the positional scale; treat it like a skipped question.
			return AnnotatedResponse{
				QuestionID:   q.ID,
				QuestionText: q.Text,
				Type:         q.Type,
				Value:        a.Value,
				Comment:      a.Comment,
			}
		}
		if opt.Weight != nil {
			resp.Score = *opt.Weight
		} else {
			resp.Score = positionalScore(idx, len(q.Options))
		}

	case TypeBoolean:
		positive := q.YesIsPositive == nil || *q.YesIsPositive
		if isYes(a.Value) == positive {
			resp.Score = yesPositiveScore
		} else {
			resp.Score = yesNegativeScore
		}

	case TypeText:
		s, _ := a.Value.(string)
		if strings.TrimSpace(s) == "" {
			resp.Answered = false
			resp.Weight = 0
			return resp
		}
		resp.Score = neutralScore

	case TypeTextarea:
		// Free-form context only. Never contributes, whatever the form says.
		resp.Score = 0
		resp.Weight = 0

	default:
		// Unknown type: full credit for answering at all.
		resp.Score = neutralScore
	}

	return resp
}

// positionalScore spreads options evenly across [1,10] by list position:
// the first option scores 1, the last 10. A single-option list scores the
// midpoint.
func positionalScore(index, count int) float64 {
	if count <= 1 {
		return neutralScore
	}
	return minScore + (float64(index)/float64(count-1))*(maxScore-minScore)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
