package twin

import (
	"encoding/json"
	"strings"
)

// decodeJSONObject decodes model output into v tolerantly: strict decode
// first, then a best-effort extraction of the outermost {...} block.
// Backend output is unreliable by nature; both tiers must exist.
func decodeJSONObject(text string, v any) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), v) == nil {
		return true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(trimmed[start:end+1]), v) == nil
}
