// Package parsers turns raw model output into typed records. Models are told
// to answer with bare JSON but routinely wrap it in code fences or prose, so
// every decoder strips fences first, then scans for the first balanced JSON
// object, and only then falls back to parsing the whole trimmed text.
package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tripflow/server/internal/planner/model"
	logx "github.com/tripflow/server/pkg/logger"
)

// maxContentLen guards against pathological model output.
const maxContentLen = 256 * 1024 // 256KB

// StripCodeFences removes a leading ```/```json fence and its closing fence.
func StripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	// drop the language tag on the opening fence, if any
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		first := strings.TrimSpace(content[:idx])
		if first == "json" || first == "" {
			content = content[idx+1:]
		}
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// FirstJSONObject returns the first balanced top-level JSON object in
// content. The scan is string- and escape-aware so braces inside string
// values do not confuse it.
func FirstJSONObject(content string) (string, bool) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeObject extracts and unmarshals the first JSON object in the model
// output into v. When no balanced object is found the entire trimmed content
// is tried as a last resort.
func DecodeObject(content string, v any) error {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "parsers").
			Int("orig_len", len(content)).
			Int("max_len", maxContentLen).
			Msg("model output truncated due to size limit")
		content = content[:maxContentLen]
	}

	content = StripCodeFences(content)
	if obj, ok := FirstJSONObject(content); ok {
		if err := json.Unmarshal([]byte(obj), v); err != nil {
			return fmt.Errorf("decode json object: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// ParsePreferences decodes an extraction response shaped like
// TravelPreferences.
func ParsePreferences(content string) (*model.TravelPreferences, error) {
	var prefs model.TravelPreferences
	if err := DecodeObject(content, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

type locationsEnvelope struct {
	Locations []model.LocationCandidate `json:"locations"`
}

// ParseLocations decodes a research response: an object with a `locations`
// array of candidates.
func ParseLocations(content string) ([]model.LocationCandidate, error) {
	var env locationsEnvelope
	if err := DecodeObject(content, &env); err != nil {
		return nil, err
	}
	return env.Locations, nil
}

type daysEnvelope struct {
	Days []model.DailyPlan `json:"days"`
}

// ParseDailyPlans decodes a planning response: an object with a `days` array.
func ParseDailyPlans(content string) ([]model.DailyPlan, error) {
	var env daysEnvelope
	if err := DecodeObject(content, &env); err != nil {
		return nil, err
	}
	return env.Days, nil
}
