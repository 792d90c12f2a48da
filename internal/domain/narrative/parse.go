package narrative

import (
	"encoding/json"
	"fmt"
	"strings"
)

var validTones = map[string]bool{
	"warm_supportive":    true,
	"firm_supportive":    true,
	"serious":            true,
	"firm_serious":       true,
	"professional_final": true,
}

// Parse validates a raw model reply into a Draft. The reply must be a
// JSON object carrying message, tone, key_points, requirements and
// timeline; a fenced code block around the object is tolerated. Any
// violation is a *ParseError with the raw reply attached.
func Parse(raw string, minMessageLen int) (Draft, error) {
	body := extractJSON(raw)
	if body == "" {
		return Draft{}, &ParseError{Reason: "no JSON object in reply", Raw: raw}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Draft{}, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}

	for _, required := range []string{"message", "tone", "key_points", "requirements", "timeline"} {
		if _, ok := fields[required]; !ok {
			return Draft{}, &ParseError{Reason: "missing required field: " + required, Raw: raw}
		}
	}

	var draft Draft
	if err := json.Unmarshal([]byte(body), &draft); err != nil {
		return Draft{}, &ParseError{Reason: fmt.Sprintf("field decode failed: %v", err), Raw: raw}
	}

	if len(draft.Message) < minMessageLen {
		return Draft{}, &ParseError{Reason: fmt.Sprintf("message too short: %d chars", len(draft.Message)), Raw: raw}
	}
	if !validTones[draft.Tone] {
		return Draft{}, &ParseError{Reason: "unrecognized tone: " + draft.Tone, Raw: raw}
	}
	if len(draft.KeyPoints) == 0 {
		return Draft{}, &ParseError{Reason: "key_points is empty", Raw: raw}
	}
	if len(draft.Requirements) == 0 {
		return Draft{}, &ParseError{Reason: "requirements is empty", Raw: raw}
	}
	if strings.TrimSpace(draft.Timeline) == "" {
		return Draft{}, &ParseError{Reason: "timeline is empty", Raw: raw}
	}

	return draft, nil
}

// extractJSON returns the outermost JSON object in the reply, stripping
// fenced code blocks the model may wrap it in despite instructions.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
