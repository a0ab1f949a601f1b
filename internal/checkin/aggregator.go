package checkin

import "math"

// runningTotal is the fold state for one aggregation pass. Kept as a value so
// concurrent aggregations never share counters.
type runningTotal struct {
	weightedScore float64
	totalWeight   float64
	answered      int
}

// Aggregate scores every answer against its question and folds the results
// into a single 0-100 submission score. Unanswered responses are dropped from
// the persisted list entirely; textarea and zero-weight responses are kept
// but excluded from the weighted sum.
func Aggregate(questions []Question, answers []Answer) ScoredSubmission {
	byQuestion := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	responses := make([]AnnotatedResponse, 0, len(questions))
	var total runningTotal
	for _, q := range questions {
		resp := ScoreAnswer(q, byQuestion[q.ID])
		if !resp.Answered {
			continue
		}
		responses = append(responses, resp)
		total.answered++
		if q.Type != TypeTextarea && resp.Weight > 0 {
			total.weightedScore += resp.Score * resp.Weight
			total.totalWeight += resp.Weight
		}
	}

	score := 0
	if total.totalWeight > 0 {
		// Each sub-score caps at 10, so totalWeight*10 is the attainable max.
		score = int(math.Round(total.weightedScore / (total.totalWeight * maxScore) * 100))
	}

	return ScoredSubmission{
		Score:             score,
		TotalQuestions:    len(questions),
		AnsweredQuestions: total.answered,
		Responses:         responses,
	}
}
