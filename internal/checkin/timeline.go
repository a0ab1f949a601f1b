package checkin

import (
	"sort"
	"time"
)

// DedupeSubmissions collapses retries and double-submits before timeline
// construction: submissions sharing an assignment id, or lacking one but
// sharing a form id and calendar day, keep only the latest by submittedAt.
// The result is sorted ascending by submission time.
func DedupeSubmissions(subs []Submission) []Submission {
	latest := make(map[string]Submission, len(subs))
	order := make([]string, 0, len(subs))

	for _, s := range subs {
		key := s.AssignmentID
		if key == "" {
			key = s.FormID + "@" + s.SubmittedAt.Format("2006-01-02")
		}
		prev, seen := latest[key]
		if !seen {
			order = append(order, key)
			latest[key] = s
			continue
		}
		if s.SubmittedAt.After(prev.SubmittedAt) {
			latest[key] = s
		}
	}

	out := make([]Submission, 0, len(order))
	for _, key := range order {
		out = append(out, latest[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// BuildTimeline reconciles question identity across a client's submissions,
// producing one track per distinct question id in first-seen order. Tracks
// record every week the id appeared; absent weeks are gaps, never synthetic
// zero scores. Callers hand in deduplicated submissions (see
// DedupeSubmissions); ordering is re-established here regardless.
func BuildTimeline(subs []Submission) []QuestionTrack {
	ordered := make([]Submission, len(subs))
	copy(ordered, subs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	lastWeek := len(ordered)
	tracks := make(map[string]*QuestionTrack)
	var order []string

	for i, sub := range ordered {
		week := i + 1
		for _, r := range sub.Responses {
			if r.QuestionID == "" {
				continue
			}
			t, seen := tracks[r.QuestionID]
			if !seen {
				t = &QuestionTrack{
					QuestionID:    r.QuestionID,
					QuestionText:  r.QuestionText,
					FirstSeenWeek: week,
					TextChanges:   []string{r.QuestionText},
				}
				tracks[r.QuestionID] = t
				order = append(order, r.QuestionID)
			} else if r.QuestionText != "" {
				lastVariant := t.TextChanges[len(t.TextChanges)-1]
				if SignificantChange(lastVariant, r.QuestionText) {
					t.TextChanges = append(t.TextChanges, r.QuestionText)
				}
				t.QuestionText = r.QuestionText
			}

			t.LastSeenWeek = week
			t.IsActive = week == lastWeek
			t.Weeks = append(t.Weeks, weekEntry(week, sub.SubmittedAt, r))
		}
	}

	out := make([]QuestionTrack, 0, len(order))
	for _, id := range order {
		out = append(out, *tracks[id])
	}
	return out
}

func weekEntry(week int, date time.Time, r AnnotatedResponse) WeekEntry {
	return WeekEntry{
		Week:   week,
		Date:   date,
		Score:  r.Score,
		Status: statusFor(r),
		Answer: r.Value,
		Type:   r.Type,
		Weight: r.Weight,
	}
}

// statusFor maps a stored response onto the traffic-light grid. Unscored
// question kinds and zero weights are grey regardless of any numeric score
// that happens to be stored.
func statusFor(r AnnotatedResponse) Status {
	if r.Weight == 0 || r.Type == TypeText || r.Type == TypeTextarea {
		return StatusGrey
	}
	switch {
	case r.Score >= 7:
		return StatusGreen
	case r.Score >= 4:
		return StatusOrange
	default:
		return StatusRed
	}
}
