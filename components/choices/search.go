package choices

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// Search filters list by a case-insensitive substring of the label or value.
// Label prefix matches rank first; ties keep list order.
func Search(list []schema.Option, query string, limit int, opts Options) []schema.Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			if len(list) <= limit {
				return append([]schema.Option{}, list...)
			}
			return append([]schema.Option{}, list[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedOption, 0, 16)
	for _, opt := range list {
		label := strings.ToLower(opt.Label)
		value := strings.ToLower(opt.Value)
		if !strings.Contains(label, q) && !strings.Contains(value, q) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   opt,
			isPrefix: strings.HasPrefix(label, q) || value == q,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].isPrefix && !matches[j].isPrefix
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]schema.Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.option)
	}
	return out
}

type matchedOption struct {
	option   schema.Option
	isPrefix bool
}
