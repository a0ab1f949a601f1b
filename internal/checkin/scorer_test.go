package checkin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func TestScoreAnswerScaleAndRating(t *testing.T) {
	tests := []struct {
		name     string
		qtype    QuestionType
		value    any
		expected float64
	}{
		{name: "scale passes value through", qtype: TypeScale, value: 7.0, expected: 7},
		{name: "scale lower bound", qtype: TypeScale, value: 1.0, expected: 1},
		{name: "scale upper bound", qtype: TypeScale, value: 10.0, expected: 10},
		{name: "rating passes value through", qtype: TypeRating, value: 4.0, expected: 4},
		{name: "below range scores zero", qtype: TypeScale, value: 0.5, expected: 0},
		{name: "above range scores zero", qtype: TypeScale, value: 11.0, expected: 0},
		{name: "non-numeric scores zero", qtype: TypeRating, value: "great", expected: 0},
		{name: "numeric string accepted", qtype: TypeScale, value: "8", expected: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q1", Type: tt.qtype}
			resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: tt.value})
			assert.True(t, resp.Answered)
			assert.Equal(t, tt.expected, resp.Score)
			assert.Equal(t, DefaultQuestionWeight, resp.Weight)
		})
	}
}

func TestScoreAnswerNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{name: "zero maps to one", value: 0.0, expected: 1},
		{name: "hundred maps to ten", value: 100.0, expected: 10},
		{name: "midpoint", value: 50.0, expected: 5.5},
		{name: "above window clamps via tenth", value: 150.0, expected: 10},
		{name: "just above window clamps", value: 103.0, expected: 10},
		{name: "negative clamps to floor", value: -20.0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q1", Type: TypeNumber}
			resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: tt.value})
			assert.Equal(t, tt.expected, resp.Score)
		})
	}
}

func TestScoreAnswerNumberStrictlyIncreasing(t *testing.T) {
	q := Question{ID: "q1", Type: TypeNumber}
	prev := -1.0
	for v := 0.0; v <= 100; v++ {
		resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: v})
		assert.Greater(t, resp.Score, prev, "score must increase with v=%v", v)
		prev = resp.Score
	}
}

func TestScoreAnswerChoice(t *testing.T) {
	fourOptions := []Option{
		{Text: "Terrible"},
		{Text: "Poor"},
		{Text: "Good"},
		{Text: "Excellent"},
	}

	tests := []struct {
		name     string
		options  []Option
		value    any
		expected float64
	}{
		{name: "first option scores one", options: fourOptions, value: "Terrible", expected: 1},
		{name: "second option evenly spaced", options: fourOptions, value: "Poor", expected: 4},
		{name: "last option scores ten", options: fourOptions, value: "Excellent", expected: 10},
		{
			name: "explicit weight wins over position",
			options: []Option{
				{Text: "Bad", Weight: fptr(2)},
				{Text: "Fine", Weight: fptr(9)},
			},
			value:    "Fine",
			expected: 9,
		},
		{
			name:     "single option scores midpoint",
			options:  []Option{{Text: "Only"}},
			value:    "Only",
			expected: 5,
		},
		{
			name: "value field matches before text",
			options: []Option{
				{Text: "Low energy", Value: "low"},
				{Text: "High energy", Value: "high"},
			},
			value:    "high",
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q1", Type: TypeMultipleChoice, Options: tt.options}
			resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: tt.value})
			assert.True(t, resp.Answered)
			assert.InDelta(t, tt.expected, resp.Score, 1e-9)
		})
	}
}

func TestScoreAnswerUnmatchedChoiceIsUnanswered(t *testing.T) {
	q := Question{
		ID:      "q1",
		Type:    TypeSelect,
		Options: []Option{{Text: "A"}, {Text: "B"}},
	}
	resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: "C"})

	assert.False(t, resp.Answered)
	assert.Zero(t, resp.Score)
	assert.Zero(t, resp.Weight)
}

func TestScoreAnswerBoolean(t *testing.T) {
	tests := []struct {
		name          string
		yesIsPositive *bool
		value         any
		expected      float64
	}{
		{name: "default yes is positive", yesIsPositive: nil, value: true, expected: 8},
		{name: "default no", yesIsPositive: nil, value: false, expected: 3},
		{name: "explicit positive yes", yesIsPositive: bptr(true), value: true, expected: 8},
		{name: "negative question yes", yesIsPositive: bptr(false), value: true, expected: 3},
		{name: "negative question no", yesIsPositive: bptr(false), value: false, expected: 8},
		{name: "string yes lowercase", yesIsPositive: nil, value: "yes", expected: 8},
		{name: "string yes capitalized", yesIsPositive: nil, value: "Yes", expected: 8},
		{name: "string no", yesIsPositive: nil, value: "no", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{ID: "q1", Type: TypeBoolean, YesIsPositive: tt.yesIsPositive}
			resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: tt.value})
			assert.Equal(t, tt.expected, resp.Score)
		})
	}
}

func TestScoreAnswerText(t *testing.T) {
	q := Question{ID: "q1", Type: TypeText}

	resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: "slept well"})
	assert.True(t, resp.Answered)
	assert.Equal(t, neutralScore, resp.Score)

	blank := ScoreAnswer(q, Answer{QuestionID: "q1", Value: "   "})
	assert.False(t, blank.Answered)
	assert.Zero(t, blank.Weight)
}

func TestScoreAnswerTextareaNeverContributes(t *testing.T) {
	q := Question{ID: "q1", Type: TypeTextarea, Weight: fptr(10)}
	resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: "a long reflective essay about the week"})

	assert.True(t, resp.Answered)
	assert.Zero(t, resp.Score)
	assert.Zero(t, resp.Weight)
}

func TestScoreAnswerUnknownType(t *testing.T) {
	q := Question{ID: "q1", Type: "slider_v2"}
	resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: "anything"})

	assert.True(t, resp.Answered)
	assert.Equal(t, neutralScore, resp.Score)
	assert.Equal(t, DefaultQuestionWeight, resp.Weight)
}

func TestScoreAnswerUnanswered(t *testing.T) {
	q := Question{ID: "q1", Type: TypeScale, Weight: fptr(8)}

	for name, value := range map[string]any{"nil value": nil, "empty string": ""} {
		t.Run(name, func(t *testing.T) {
			resp := ScoreAnswer(q, Answer{QuestionID: "q1", Value: value})
			assert.False(t, resp.Answered)
			assert.Zero(t, resp.Score)
			assert.Zero(t, resp.Weight)
		})
	}
}

func TestEffectiveWeightResolution(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		expected float64
	}{
		{name: "default when unset", question: Question{Type: TypeScale}, expected: 5},
		{name: "weight field", question: Question{Type: TypeScale, Weight: fptr(3)}, expected: 3},
		{
			name:     "questionWeight wins over weight",
			question: Question{Type: TypeScale, QuestionWeight: fptr(7), Weight: fptr(3)},
			expected: 7,
		},
		{name: "zero weight means unscored", question: Question{Type: TypeScale, Weight: fptr(0)}, expected: 0},
		{
			name:     "textarea forced to zero",
			question: Question{Type: TypeTextarea, QuestionWeight: fptr(9)},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.question.EffectiveWeight())
		})
	}
}
