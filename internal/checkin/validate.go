package checkin

// MissingRequired returns the 1-based form positions of required questions
// that have no usable answer. The submission layer rejects the check-in when
// this is non-empty; the scoring engine itself never sees the invalid input.
func MissingRequired(questions []Question, answers []Answer) []int {
	byQuestion := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	var missing []int
	for i, q := range questions {
		if !q.IsRequiredField() {
			continue
		}
		if isUnanswered(byQuestion[q.ID].Value) {
			missing = append(missing, i+1)
		}
	}
	return missing
}
