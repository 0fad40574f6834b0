// Package schema extracts and validates the JSON score report embedded in a
// generative model's free-text reply.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ai-interview-service/internal/models"
)

var (
	// ErrUnparsable is returned when no candidate in the reply decodes as JSON.
	ErrUnparsable = errors.New("scoring reply is not valid JSON")
	// ErrMissingField is returned when a decoded report lacks a required key.
	ErrMissingField = errors.New("scoring reply is missing a required field")
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	// A brace-delimited span with at most one level of nested objects.
	braceSpan = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// Candidates returns the substrings of reply to try as JSON, in order: a
// fenced code block, the first brace-delimited span, the whole reply.
func Candidates(reply string) []string {
	var out []string
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		out = append(out, m[1])
	}
	if m := braceSpan.FindString(reply); m != "" {
		out = append(out, m)
	}
	return append(out, strings.TrimSpace(reply))
}

// Extract decodes the first candidate that is a JSON object.
func Extract(reply string) (map[string]json.RawMessage, error) {
	var lastErr error
	for _, c := range Candidates(reply) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(c), &obj); err != nil {
			lastErr = err
			continue
		}
		if obj == nil {
			lastErr = errors.New("null object")
			continue
		}
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparsable, lastErr)
}

// Validate checks that the required keys are present and not null, then
// returns the whole object, unknown keys included.
func Validate(obj map[string]json.RawMessage) (models.ScoreReport, error) {
	for _, key := range []string{models.KeyOverallScore, models.KeySummary, models.KeyQuestionScores} {
		if raw, ok := obj[key]; !ok || string(raw) == "null" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	report := make(models.ScoreReport, len(obj))
	for key, raw := range obj {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		report[key] = v
	}
	return report, nil
}

// ParseScoreReply extracts and validates a report from a raw model reply.
func ParseScoreReply(reply string) (models.ScoreReport, error) {
	obj, err := Extract(reply)
	if err != nil {
		return nil, err
	}
	return Validate(obj)
}
