package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// LoadTokenStats reads the token usage cache. A missing file yields empty stats
// and no error; an unreadable or malformed file yields empty stats and an error.
func LoadTokenStats(path string) (model.TokenStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.TokenStats{}, nil
		}
		return model.TokenStats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return ParseTokenStats(data)
}

// ParseTokenStats decodes either the "models" or the "modelUsage" shape,
// preferring "models" when it is present and non-empty.
func ParseTokenStats(data []byte) (model.TokenStats, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.TokenStats{}, fmt.Errorf("failed to decode stats: %w", err)
	}
	source := modelMap(doc["models"])
	if len(source) == 0 {
		source = modelMap(doc["modelUsage"])
	}
	stats := model.TokenStats{}
	for name, raw := range source {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		stats[name] = model.ModelUsage{
			InputTokens:  tokenCount(fields["inputTokens"]),
			OutputTokens: tokenCount(fields["outputTokens"]),
		}
	}
	return stats, nil
}

// modelMap decodes one per-model section. A missing or malformed section is empty.
func modelMap(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// tokenCount accepts numbers and numeric strings; anything else counts as 0.
func tokenCount(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return int64(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
			return v
		}
	}
	return 0
}
