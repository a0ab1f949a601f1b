package checkin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Option is one choice on a multiple_choice or select question. Stored forms
// hold either bare strings or objects with text/value and an optional
// explicit score weight, so unmarshalling normalizes both shapes here instead
// of scattering type checks through the scorer.
type Option struct {
	Text   string   `json:"text"`
	Value  string   `json:"value,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Text = s
		o.Value = ""
		o.Weight = nil
		return nil
	}

	type optionObject struct {
		Text   string   `json:"text"`
		Label  string   `json:"label"`
		Value  string   `json:"value"`
		Weight *float64 `json:"weight"`
	}
	var obj optionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("option must be a string or an object: %w", err)
	}

	o.Text = obj.Text
	if o.Text == "" {
		o.Text = obj.Label
	}
	o.Value = obj.Value
	o.Weight = obj.Weight
	return nil
}

// Matches reports whether a selected value refers to this option, checking
// the explicit value first and falling back to the display text.
func (o Option) Matches(selected string) bool {
	if o.Value != "" && o.Value == selected {
		return true
	}
	return o.Text != "" && o.Text == selected
}

// matchOption finds the selected option among a question's options, returning
// its 0-based index or -1 when nothing matches.
func matchOption(options []Option, value any) (int, Option) {
	selected := stringValue(value)
	for i, opt := range options {
		if opt.Matches(selected) {
			return i, opt
		}
	}
	return -1, Option{}
}

// stringValue renders an answer value the way the form UI sends selections:
// strings verbatim, numbers without a trailing ".0".
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// numericValue coerces an answer value to a float64 where possible. Document
// store reads hand back float64 for anything numeric, but imported data may
// carry ints or numeric strings.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// isUnanswered applies the shared emptiness rule: nil or empty string means
// the question was skipped.
func isUnanswered(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// isYes resolves an affirmative boolean answer from the shapes the form UI
// produces: true, "yes", "Yes" and friends.
func isYes(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "yes" || s == "true"
	default:
		return false
	}
}
