package choices

import (
	"net/http"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// DefaultRoutePath is the route the handler is mounted under.
const DefaultRoutePath = "/api/choices"

type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	Guard           GuardFunc

	// Registry supplies the default option lists. Defaults to the built-in
	// catalog.
	Registry *fieldtypes.Registry
	// Lists overrides or extends the registry lists, keyed by type id.
	Lists map[string][]schema.Option
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       DefaultRoutePath,
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    50,
		MaxLimit:        200,
		EmptySearchMode: EmptySearchTop,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = EmptySearchTop
	}
	if opts.RoutePath == "" {
		opts.RoutePath = DefaultRoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if opts.Lists != nil {
		lists := make(map[string][]schema.Option, len(opts.Lists))
		for id, list := range opts.Lists {
			lists[id] = append([]schema.Option{}, list...)
		}
		opts.Lists = lists
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.EmptySearchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithRegistry reads default option lists from types.
func WithRegistry(types *fieldtypes.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Registry = types
	}
}

// WithList serves list for typeID instead of the registry default.
func WithList(typeID string, list []schema.Option) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		if o.Lists == nil {
			o.Lists = make(map[string][]schema.Option)
		}
		o.Lists[typeID] = append([]schema.Option{}, list...)
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
