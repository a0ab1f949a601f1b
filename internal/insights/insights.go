package insights

import (
	"context"
	"time"

	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
)

// ClientSnapshot is the input for insight generation, assembled from a
// client's check-in history.
type ClientSnapshot struct {
	ClientName   string                  `json:"client_name"`
	Scores       []float64               `json:"scores"`
	CurrentScore float64                 `json:"current_score"`
	ScoreTrend   checkin.Trend           `json:"score_trend"`
	Questions    []checkin.QuestionTrack `json:"questions"`
}

// Insight is a narrative summary of how a client is tracking
type Insight struct {
	Summary     string    `json:"summary"`
	Highlights  []string  `json:"highlights"`
	Concerns    []string  `json:"concerns"`
	Suggestions []string  `json:"suggestions"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Generator produces narrative insights from a client snapshot
type Generator interface {
	Generate(ctx context.Context, snapshot ClientSnapshot) (*Insight, error)
}

// Service wraps a primary generator with a local fallback. When the
// primary is unavailable or fails, the local generator answers instead.
type Service struct {
	primary  Generator
	fallback *LocalGenerator
}

// NewService creates an insight service. A nil primary means all
// insights come from the local generator.
func NewService(primary Generator) *Service {
	return &Service{
		primary:  primary,
		fallback: NewLocalGenerator(),
	}
}

// Generate produces an insight for the snapshot
func (s *Service) Generate(ctx context.Context, snapshot ClientSnapshot) (*Insight, error) {
	if s.primary != nil {
		insight, err := s.primary.Generate(ctx, snapshot)
		if err == nil {
			return insight, nil
		}
	}
	return s.fallback.Generate(ctx, snapshot)
}
