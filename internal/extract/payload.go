package extract

import (
	"strconv"
	"strings"
)

// Coercion helpers for the semi-structured payloads workers emit.
// Workers are not trusted to keep types stable, so every accessor
// tolerates strings-where-numbers and vice versa.

func getMap(m map[string]interface{}, keys ...string) map[string]interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if sub, ok := v.(map[string]interface{}); ok {
				return sub
			}
		}
	}
	return nil
}

func getString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func getInt(m map[string]interface{}, keys ...string) (int64, bool) {
	if f, ok := getFloat(m, keys...); ok {
		return int64(f), true
	}
	return 0, false
}

func getBool(m map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		switch v := m[key].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return false
}

// getSlice returns a list value; a lone scalar is wrapped so workers
// that emit a single item instead of a list still parse.
func getSlice(m map[string]interface{}, keys ...string) []interface{} {
	for _, key := range keys {
		switch v := m[key].(type) {
		case []interface{}:
			return v
		case string, map[string]interface{}:
			return []interface{}{v}
		}
	}
	return nil
}

// getStrings returns a list of non-empty strings, splitting comma
// separated scalars.
func getStrings(m map[string]interface{}, keys ...string) []string {
	var out []string
	for _, item := range getSlice(m, keys...) {
		s, ok := item.(string)
		if !ok {
			continue
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
