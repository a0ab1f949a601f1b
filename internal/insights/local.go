package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
)

// questionTrendRule is tuned for the 1-10 answer scale
var questionTrendRule = checkin.TrendRule{Delta: 1}

// LocalGenerator builds insights from templates, without calling any
// external service.
type LocalGenerator struct{}

// NewLocalGenerator creates a template-based insight generator
func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

// Generate builds an insight from the snapshot's scores and question tracks
func (g *LocalGenerator) Generate(_ context.Context, snapshot ClientSnapshot) (*Insight, error) {
	insight := &Insight{
		Summary:     g.summary(snapshot),
		Source:      "local",
		GeneratedAt: time.Now().UTC(),
	}

	for _, q := range snapshot.Questions {
		if !q.IsActive || len(q.Weeks) == 0 {
			continue
		}
		status := q.Weeks[len(q.Weeks)-1].Status
		trend := trackTrend(q)

		switch status {
		case checkin.StatusGreen:
			if trend == checkin.TrendImproving {
				insight.Highlights = append(insight.Highlights, fmt.Sprintf("%q is strong and still improving.", q.QuestionText))
			} else {
				insight.Highlights = append(insight.Highlights, fmt.Sprintf("%q is in a good place.", q.QuestionText))
			}
		case checkin.StatusRed:
			insight.Concerns = append(insight.Concerns, fmt.Sprintf("%q has been scoring low.", q.QuestionText))
			insight.Suggestions = append(insight.Suggestions, fmt.Sprintf("Bring up %q in the next session.", q.QuestionText))
		case checkin.StatusOrange:
			if trend == checkin.TrendDeclining {
				insight.Concerns = append(insight.Concerns, fmt.Sprintf("%q is slipping week over week.", q.QuestionText))
			}
		}

		if gaps := trackGaps(q); gaps > 0 {
			insight.Suggestions = append(insight.Suggestions, fmt.Sprintf("%q was skipped in %d week(s); check whether it still applies.", q.QuestionText, gaps))
		}
	}

	return insight, nil
}

func (g *LocalGenerator) summary(snapshot ClientSnapshot) string {
	name := snapshot.ClientName
	if name == "" {
		name = "This client"
	}

	switch snapshot.ScoreTrend {
	case checkin.TrendImproving:
		return fmt.Sprintf("%s is trending up, currently scoring %.0f out of 100.", name, snapshot.CurrentScore)
	case checkin.TrendDeclining:
		return fmt.Sprintf("%s is trending down, currently scoring %.0f out of 100.", name, snapshot.CurrentScore)
	default:
		if len(snapshot.Scores) == 0 {
			return fmt.Sprintf("%s has no check-ins recorded yet.", name)
		}
		return fmt.Sprintf("%s is holding steady around %.0f out of 100.", name, snapshot.CurrentScore)
	}
}

// trackTrend classifies the latest answer score against the earlier ones
func trackTrend(q checkin.QuestionTrack) checkin.Trend {
	if len(q.Weeks) < 2 {
		return checkin.TrendStable
	}
	history := make([]float64, 0, len(q.Weeks)-1)
	for _, w := range q.Weeks[:len(q.Weeks)-1] {
		history = append(history, w.Score)
	}
	current := q.Weeks[len(q.Weeks)-1].Score
	return checkin.ClassifyTrend(current, history, questionTrendRule)
}

// trackGaps counts weeks inside the track's lifespan with no entry
func trackGaps(q checkin.QuestionTrack) int {
	span := q.LastSeenWeek - q.FirstSeenWeek + 1
	if span <= len(q.Weeks) {
		return 0
	}
	return span - len(q.Weeks)
}
