package choices

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
)

// ErrNoChoices is returned for types that are unknown or carry no default
// options.
var ErrNoChoices = errors.New("choices: type has no option list")

// ListFor returns the option list served for typeID.
func ListFor(typeID string, opts Options) ([]schema.Option, error) {
	if list, ok := opts.Lists[typeID]; ok {
		return list, nil
	}
	types := opts.Registry
	if types == nil {
		types = defaultRegistry()
	}
	def, ok := types.Get(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrNoChoices, typeID)
	}
	setting, ok := def.Setting("options")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoChoices, typeID)
	}
	list := schema.ParseOptions(setting.Default)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoChoices, typeID)
	}
	return list, nil
}

// Types returns the ids of every type ListFor can serve, in registry order
// followed by explicit lists.
func Types(opts Options) []string {
	types := opts.Registry
	if types == nil {
		types = defaultRegistry()
	}
	var out []string
	seen := make(map[string]struct{})
	for _, id := range types.IDs() {
		if _, err := ListFor(id, opts); err == nil {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	var extra []string
	for id := range opts.Lists {
		if _, ok := seen[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

var (
	defaultOnce  sync.Once
	defaultTypes *fieldtypes.Registry
)

func defaultRegistry() *fieldtypes.Registry {
	defaultOnce.Do(func() {
		defaultTypes = fieldtypes.NewDefaultRegistry()
	})
	return defaultTypes
}
