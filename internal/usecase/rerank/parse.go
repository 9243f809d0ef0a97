package rerank

import (
	"encoding/json"
	"strings"
)

// extractRankedNames pulls a JSON array of names out of free-form oracle
// output. The oracle is asked for a bare JSON list but tends to wrap it
// in prose or code fences, so everything from the first '[' to the last
// ']' is treated as the array. ok is false when no parseable array is
// present.
func extractRankedNames(text string) (names []string, ok bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &names); err != nil {
		return nil, false
	}
	return names, true
}
