// Package llmjson extracts JSON objects from LLM output that may be wrapped
// in markdown code fences or surrounded by conversational filler.
package llmjson

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Extract attempts to pull a JSON object out of text. It first looks for a
// fenced ```json block, then falls back to stripping common fence prefixes
// and suffixes from the whole string. Returns false if nothing parseable is
// found.
func Extract(text string) (map[string]any, bool) {
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		var result map[string]any
		if err := json.Unmarshal([]byte(match[1]), &result); err == nil {
			return result, true
		}

		slog.Debug("Fenced block is not valid JSON, falling back to stripping")
	}

	return stripAndParse(text)
}

func stripAndParse(text string) (map[string]any, bool) {
	stripped := strip(text)
	if stripped == "" {
		return nil, false
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(stripped), &result); err != nil {
		slog.Debug("Failed to parse JSON from LLM output", "error", err)
		return nil, false
	}

	return result, true
}

func strip(text string) string {
	result := strings.TrimSpace(text)
	result = strings.TrimPrefix(result, "```json")
	result = strings.TrimPrefix(result, "```")
	result = strings.TrimSuffix(result, "```")
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")

	return strings.TrimSpace(result)
}
