// internal/domain/homework/validate.go
package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type homeworkPayload struct {
	ID              int64  `json:"id"`
	Name            string `json:"homework_name"`
	Status          string `json:"status"`
	LessonName      string `json:"lesson_name"`
	ReviewerComment string `json:"reviewer_comment"`
	DateUpdated     string `json:"date_updated"`
}

// ValidateResponse checks that body is a JSON object carrying both
// current_date and a non-empty homeworks list, and decodes it.
func ValidateResponse(body []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, &ShapeError{Reason: "response is not an object"}
	}

	rawDate, hasDate := fields["current_date"]
	rawHomeworks, hasHomeworks := fields["homeworks"]
	if !hasDate || !hasHomeworks {
		return nil, &ShapeError{Reason: "current_date and homeworks keys are required"}
	}

	currentDate, err := parseUnix(rawDate)
	if err != nil {
		return nil, &ShapeError{Reason: fmt.Sprintf("current_date: %v", err)}
	}

	var items []json.RawMessage
	if isNull(rawHomeworks) || json.Unmarshal(rawHomeworks, &items) != nil {
		return nil, &ShapeError{Reason: "homeworks should be a list"}
	}
	if len(items) == 0 {
		return nil, &EmptyResultError{}
	}

	resp := &Response{CurrentDate: currentDate, Homeworks: make([]Homework, 0, len(items))}
	for i, item := range items {
		hw, err := decodeHomework(item)
		if err != nil {
			return nil, &ShapeError{Reason: fmt.Sprintf("homeworks[%d]: %v", i, err)}
		}
		resp.Homeworks = append(resp.Homeworks, hw)
	}
	return resp, nil
}

func decodeHomework(raw json.RawMessage) (Homework, error) {
	if isNull(raw) || bytes.TrimSpace(raw)[0] != '{' {
		return Homework{}, fmt.Errorf("record is not an object")
	}
	var p homeworkPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Homework{}, err
	}

	hw := Homework{
		ID:              p.ID,
		Name:            p.Name,
		Status:          Status(p.Status),
		LessonName:      p.LessonName,
		ReviewerComment: p.ReviewerComment,
	}
	if p.DateUpdated != "" {
		updated, err := time.Parse(time.RFC3339, p.DateUpdated)
		if err != nil {
			return Homework{}, fmt.Errorf("date_updated: %w", err)
		}
		hw.UpdatedAt = updated
	}
	return hw, nil
}

func parseUnix(raw json.RawMessage) (time.Time, error) {
	var n json.Number
	if isNull(raw) || json.Unmarshal(raw, &n) != nil {
		return time.Time{}, fmt.Errorf("expected a unix timestamp, got %s", raw)
	}
	if secs, err := n.Int64(); err == nil {
		return time.Unix(secs, 0), nil
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, fmt.Errorf("expected a unix timestamp, got %s", raw)
	}
	return time.Unix(int64(f), 0), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
