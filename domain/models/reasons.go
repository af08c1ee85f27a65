package models

import (
	"encoding/json"
	"strings"
)

// ReasonConfig is one selectable return reason. Key is sent to the API,
// Translation is shown to the buyer.
type ReasonConfig struct {
	Key            string `json:"value"`
	Translation    string `json:"label"`
	HasDescription bool   `json:"has_description"`
}

var defaultReturnReasons = []string{
	"Defective product",
	"Wrong item received",
	"Not as described",
	"Changed mind",
}

// DefaultReturnReasons used when a product policy does not define its own
func DefaultReturnReasons() []ReasonConfig {
	return reasonsOf(defaultReturnReasons)
}

// ParseRequiredReasons decodes a policy's serialized reason list. The API
// normally sends a JSON array string, a plain comma separated list is
// tolerated. ok is false when nothing usable was found.
func ParseRequiredReasons(serialized string) (reasons []ReasonConfig, ok bool) {
	serialized = strings.TrimSpace(serialized)
	if serialized == "" {
		return nil, false
	}

	var list []string
	if err := json.Unmarshal([]byte(serialized), &list); err != nil {
		// a JSON string holding the array, double encoded by some endpoints
		var inner string
		if err := json.Unmarshal([]byte(serialized), &inner); err == nil {
			return ParseRequiredReasons(inner)
		}

		if strings.HasPrefix(serialized, "[") {
			return nil, false
		}
		list = strings.Split(serialized, ",")
	}

	cleaned := make([]string, 0, len(list))
	for _, value := range list {
		if value = strings.TrimSpace(value); value != "" {
			cleaned = append(cleaned, value)
		}
	}

	if len(cleaned) == 0 {
		return nil, false
	}
	return reasonsOf(cleaned), true
}

func reasonsOf(values []string) []ReasonConfig {
	reasons := make([]ReasonConfig, 0, len(values))
	for _, value := range values {
		reasons = append(reasons, ReasonConfig{Key: value, Translation: value})
	}
	return reasons
}
