package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
)

func testSnapshot() ClientSnapshot {
	return ClientSnapshot{
		ClientName:   "Sarah",
		Scores:       []float64{60, 77, 90},
		CurrentScore: 90,
		ScoreTrend:   checkin.TrendImproving,
		Questions: []checkin.QuestionTrack{
			{
				QuestionID:    "sleep",
				QuestionText:  "How is your sleep?",
				FirstSeenWeek: 1,
				LastSeenWeek:  3,
				IsActive:      true,
				Weeks: []checkin.WeekEntry{
					{Week: 1, Score: 6, Status: checkin.StatusOrange},
					{Week: 2, Score: 7, Status: checkin.StatusGreen},
					{Week: 3, Score: 9, Status: checkin.StatusGreen},
				},
			},
			{
				QuestionID:    "stress",
				QuestionText:  "How stressed are you?",
				FirstSeenWeek: 1,
				LastSeenWeek:  3,
				IsActive:      true,
				Weeks: []checkin.WeekEntry{
					{Week: 1, Score: 3, Status: checkin.StatusRed},
					{Week: 3, Score: 2, Status: checkin.StatusRed},
				},
			},
			{
				QuestionID:    "old",
				QuestionText:  "Old question",
				FirstSeenWeek: 1,
				LastSeenWeek:  1,
				IsActive:      false,
				Weeks: []checkin.WeekEntry{
					{Week: 1, Score: 8, Status: checkin.StatusGreen},
				},
			},
		},
	}
}

func TestLocalGenerator(t *testing.T) {
	g := NewLocalGenerator()

	insight, err := g.Generate(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "local", insight.Source)
	assert.Contains(t, insight.Summary, "Sarah")
	assert.Contains(t, insight.Summary, "trending up")
	require.Len(t, insight.Highlights, 1)
	assert.Contains(t, insight.Highlights[0], "sleep")
	require.Len(t, insight.Concerns, 1)
	assert.Contains(t, insight.Concerns[0], "stressed")
	// One suggestion from the red status, one from the skipped week
	assert.Len(t, insight.Suggestions, 2)
	assert.False(t, insight.GeneratedAt.IsZero())
}

func TestLocalGeneratorEmptyHistory(t *testing.T) {
	g := NewLocalGenerator()

	insight, err := g.Generate(context.Background(), ClientSnapshot{ClientName: "Tom"})
	require.NoError(t, err)
	assert.Contains(t, insight.Summary, "no check-ins recorded")
	assert.Empty(t, insight.Highlights)
	assert.Empty(t, insight.Concerns)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, ClientSnapshot) (*Insight, error) {
	return nil, errors.New("service unavailable")
}

func TestServiceFallsBackToLocal(t *testing.T) {
	svc := NewService(failingGenerator{})

	insight, err := svc.Generate(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "local", insight.Source)
}

func TestRemoteGenerator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/insights", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var snapshot ClientSnapshot
		require.NoError(t, json.NewDecoder(r.Body).Decode(&snapshot))
		assert.Equal(t, "Sarah", snapshot.ClientName)

		json.NewEncoder(w).Encode(Insight{
			Summary:    "Sarah is doing great.",
			Highlights: []string{"Sleep quality improved"},
		})
	}))
	defer server.Close()

	g := NewRemoteGenerator(server.URL, "test-key")

	insight, err := g.Generate(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "remote", insight.Source)
	assert.Equal(t, "Sarah is doing great.", insight.Summary)
	assert.False(t, insight.GeneratedAt.IsZero())
}

func TestRemoteGeneratorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewRemoteGenerator(server.URL, "")

	_, err := g.Generate(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
