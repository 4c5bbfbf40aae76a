package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Settings maps setting names to authored values. Values arrive loosely typed
// from JSON/YAML; accessors coerce them on read.
type Settings map[string]any

// Option is a value/label pair used by choice fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for key, value := range s {
		out[key] = deepCopy(value)
	}
	return out
}

// Has reports whether the key is present with a non-nil value.
func (s Settings) Has(key string) bool {
	if s == nil {
		return false
	}
	value, ok := s[key]
	return ok && value != nil
}

// String returns the value as a trimmed string. Missing keys yield "".
func (s Settings) String(key string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(ToString(s[key]))
}

// Bool returns the value coerced to a boolean.
func (s Settings) Bool(key string) bool {
	if s == nil {
		return false
	}
	value, _ := ToBool(s[key])
	return value
}

// Float returns the value coerced to a float and whether coercion succeeded.
func (s Settings) Float(key string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return ToFloat(s[key])
}

// Int returns the value coerced to an int, or fallback when missing or not
// numeric.
func (s Settings) Int(key string, fallback int) int {
	value, ok := s.Float(key)
	if !ok {
		return fallback
	}
	return int(value)
}

// Options parses a choice list. Accepted shapes: a newline separated string
// with optional "value|label" or "value : label" pairs, a list of strings, or
// a list of {value, label} objects.
func (s Settings) Options(key string) []Option {
	if s == nil {
		return nil
	}
	return ParseOptions(s[key])
}

// ParseOptions converts a loosely typed options value into Option entries.
func ParseOptions(raw any) []Option {
	switch typed := raw.(type) {
	case nil:
		return nil
	case string:
		var out []Option
		for _, line := range strings.Split(typed, "\n") {
			if opt, ok := parseOptionLine(line); ok {
				out = append(out, opt)
			}
		}
		return out
	case []string:
		out := make([]Option, 0, len(typed))
		for _, entry := range typed {
			if opt, ok := parseOptionLine(entry); ok {
				out = append(out, opt)
			}
		}
		return out
	case []Option:
		return append([]Option(nil), typed...)
	case []any:
		out := make([]Option, 0, len(typed))
		for _, entry := range typed {
			switch item := entry.(type) {
			case map[string]any:
				value := strings.TrimSpace(ToString(item["value"]))
				label := strings.TrimSpace(ToString(item["label"]))
				if value == "" && label == "" {
					continue
				}
				if value == "" {
					value = label
				}
				if label == "" {
					label = value
				}
				out = append(out, Option{Value: value, Label: label})
			default:
				if opt, ok := parseOptionLine(ToString(item)); ok {
					out = append(out, opt)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func parseOptionLine(line string) (Option, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Option{}, false
	}
	for _, sep := range []string{"|", " : "} {
		if value, label, ok := strings.Cut(line, sep); ok {
			value = strings.TrimSpace(value)
			label = strings.TrimSpace(label)
			if value == "" {
				value = label
			}
			if label == "" {
				label = value
			}
			return Option{Value: value, Label: label}, true
		}
	}
	return Option{Value: line, Label: line}, true
}

// ToString renders scalar values the way they would appear in a form input.
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(value)
	}
}

// ToBool coerces common truthy encodings ("1", "true", "yes", "on", 1).
func ToBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off", "":
			return false, true
		default:
			return false, false
		}
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	default:
		return false, false
	}
}

// ToFloat coerces numbers and numeric strings.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case Settings:
		return typed.Clone()
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
