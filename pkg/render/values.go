package render

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// booleanTypes post "0" through a companion hidden input followed by "1"
// when checked.
var booleanTypes = map[string]struct{}{
	"checkbox": {},
	"toggle":   {},
	"consent":  {},
}

// DecodeFormValues turns a posted form into the value map the rule program
// and submission validator expect. It follows the browser runtime: names
// ending in [] collect lists, bracketed names nest (meters[0][serial]),
// numeric keys become ordered lists and boolean controls become booleans.
// Inputs whose name starts with an underscore (_method, _formflow_instance)
// are transport fields and are skipped.
func DecodeFormValues(form schema.Schema, posted url.Values) map[string]any {
	values := map[string]any{}

	names := make([]string, 0, len(posted))
	for name := range posted {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasPrefix(name, "_") || strings.TrimSpace(name) == "" {
			continue
		}
		entries := posted[name]
		if len(entries) == 0 {
			continue
		}
		parts := splitInputName(name)
		if parts[len(parts)-1] == "" {
			list := make([]any, 0, len(entries))
			for _, entry := range entries {
				list = append(list, entry)
			}
			assignPath(values, parts[:len(parts)-1], list)
			continue
		}
		assignPath(values, parts, entries[len(entries)-1])
	}

	for key, value := range values {
		values[key] = listify(value)
	}
	for _, step := range form.Steps {
		coerceBooleans(values, step.Fields)
	}
	return values
}

func splitInputName(name string) []string {
	first := strings.IndexByte(name, '[')
	if first < 0 {
		return []string{name}
	}
	parts := []string{name[:first]}
	rest := name[first:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

func assignPath(target map[string]any, parts []string, value any) {
	current := target
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// listify converts maps keyed only by row numbers into ordered lists.
func listify(value any) any {
	switch typed := value.(type) {
	case []any:
		for idx := range typed {
			typed[idx] = listify(typed[idx])
		}
		return typed
	case map[string]any:
		numeric := len(typed) > 0
		for key, item := range typed {
			typed[key] = listify(item)
			if _, err := strconv.Atoi(key); err != nil || strings.HasPrefix(key, "-") {
				numeric = false
			}
		}
		if !numeric {
			return typed
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
		out := make([]any, 0, len(keys))
		for _, key := range keys {
			out = append(out, typed[key])
		}
		return out
	default:
		return value
	}
}

// coerceBooleans walks the field tree. Unchecked boxes without a companion
// input decode as false; repeater rows are handled row by row.
func coerceBooleans(values map[string]any, fields []schema.Field) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if _, ok := booleanTypes[field.Type]; ok && name != "" {
			checked, _ := schema.ToBool(values[name])
			values[name] = checked
			continue
		}
		if field.Type == "repeater" && name != "" {
			rows, _ := values[name].([]any)
			for _, row := range rows {
				if item, ok := row.(map[string]any); ok {
					coerceBooleans(item, field.Children)
				}
			}
			continue
		}
		if len(field.Children) > 0 {
			coerceBooleans(values, field.Children)
		}
	}
}
