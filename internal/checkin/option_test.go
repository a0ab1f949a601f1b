package checkin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionUnmarshalShapes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Option
	}{
		{
			name:     "bare string",
			raw:      `"Somewhat better"`,
			expected: Option{Text: "Somewhat better"},
		},
		{
			name:     "object with text",
			raw:      `{"text":"Much better"}`,
			expected: Option{Text: "Much better"},
		},
		{
			name:     "object with value and weight",
			raw:      `{"text":"Much better","value":"mb","weight":9}`,
			expected: Option{Text: "Much better", Value: "mb", Weight: fptr(9)},
		},
		{
			name:     "label used when text missing",
			raw:      `{"label":"Worse"}`,
			expected: Option{Text: "Worse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opt Option
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &opt))
			assert.Equal(t, tt.expected, opt)
		})
	}
}

func TestOptionListMixedShapes(t *testing.T) {
	raw := `["Never", {"text":"Sometimes"}, {"text":"Always","weight":10}]`

	var opts []Option
	require.NoError(t, json.Unmarshal([]byte(raw), &opts))
	require.Len(t, opts, 3)
	assert.Equal(t, "Never", opts[0].Text)
	assert.Nil(t, opts[1].Weight)
	require.NotNil(t, opts[2].Weight)
	assert.Equal(t, 10.0, *opts[2].Weight)
}

func TestOptionMatches(t *testing.T) {
	opt := Option{Text: "High energy", Value: "high"}

	assert.True(t, opt.Matches("high"))
	assert.True(t, opt.Matches("High energy"))
	assert.False(t, opt.Matches("low"))
	assert.False(t, Option{}.Matches(""))
}

func TestNumericValueCoercion(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{name: "float64", input: 7.5, expected: 7.5, ok: true},
		{name: "int", input: 7, expected: 7, ok: true},
		{name: "numeric string", input: " 42 ", expected: 42, ok: true},
		{name: "json number", input: json.Number("3.5"), expected: 3.5, ok: true},
		{name: "garbage string", input: "lots", ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "bool", input: true, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := numericValue(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, v)
			}
		})
	}
}
