// Package extract pulls structured JSON out of LLM chat responses.
// Models frequently wrap JSON in markdown code fences despite a JSON-only
// instruction; the heuristic here is isolated so its edge cases can be
// tested in one place.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	jsonFence = "```json"
	bareFence = "```"
)

// MalformedResponseError reports text that failed JSON parsing even after
// fence stripping.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// JSON strips a markdown code fence, if any, and unmarshals the remainder
// into v. A fence tagged json takes precedence over a bare fence; in both
// cases the first fence pair wins. Multiple or nested fences are not
// specially handled.
func JSON(text string, v any) error {
	candidate := stripFences(text)

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return &MalformedResponseError{Err: err}
	}

	return nil
}

func stripFences(text string) string {
	candidate := text

	if i := strings.Index(text, jsonFence); i >= 0 {
		candidate = text[i+len(jsonFence):]
		if j := strings.Index(candidate, bareFence); j >= 0 {
			candidate = candidate[:j]
		}
	} else if i := strings.Index(text, bareFence); i >= 0 {
		candidate = text[i+len(bareFence):]
		if j := strings.Index(candidate, bareFence); j >= 0 {
			candidate = candidate[:j]
		}
	}

	return strings.TrimSpace(candidate)
}
