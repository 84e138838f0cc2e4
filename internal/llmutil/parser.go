// Package llmutil holds helpers for turning raw model output into typed
// values. Models frequently wrap JSON in markdown fences or conversational
// text even when told not to; the extractors here tolerate both.
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

var (
	// Regexes use \x60 for backticks because Go raw strings cannot contain them.
	jsonObjectFence = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	jsonArrayFence  = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ExtractJSON pulls the JSON payload out of a model reply, stripping markdown
// fences and surrounding prose. It returns the original (trimmed) string when
// no narrowing is possible.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	isObject := strings.Contains(response, "{")
	isArray := strings.Contains(response, "[")

	if strings.HasPrefix(response, "```") {
		var matches []string
		if isObject {
			matches = jsonObjectFence.FindStringSubmatch(response)
		}
		if len(matches) <= 1 && isArray {
			matches = jsonArrayFence.FindStringSubmatch(response)
		}
		if len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	if isObject && !strings.HasPrefix(response, "{") {
		if fb, lb := strings.Index(response, "{"), strings.LastIndex(response, "}"); fb != -1 && lb > fb {
			return response[fb : lb+1]
		}
	}
	if isArray && !strings.HasPrefix(response, "[") {
		if fb, lb := strings.Index(response, "["), strings.LastIndex(response, "]"); fb != -1 && lb > fb {
			return response[fb : lb+1]
		}
	}
	return response
}

// ValidateJSON reports whether the reply carries a parseable JSON value after
// extraction.
func ValidateJSON(response string) error {
	extracted := ExtractJSON(response)
	if extracted == "" {
		return fmt.Errorf("no JSON found in response")
	}
	var probe any
	if err := json.Unmarshal([]byte(extracted), &probe); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}

// Decode parses a model reply into a typed value, applying the same
// extraction rules as ValidateJSON.
func Decode[T any](response string) (*T, error) {
	extracted := ExtractJSON(response)
	if extracted == "" {
		return nil, fmt.Errorf("no JSON found in model response")
	}

	var out T
	if err := json.Unmarshal([]byte(extracted), &out); err != nil {
		return nil, fmt.Errorf("unmarshalling model response: %w (extracted: %s)", err, truncate(extracted, 300))
	}
	return &out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
