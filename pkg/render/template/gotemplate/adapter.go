package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/render/template"
)

var registerFilters sync.Once

// Engine executes pongo2 templates read from an fs.FS. Parsed files are cached
// by path for the lifetime of the engine.
type Engine struct {
	set       *pongo2.TemplateSet
	extension string

	mu    sync.RWMutex
	files map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New returns an engine loading templates from files. Names passed to
// RenderTemplate get extension appended when they lack it.
func New(files fs.FS, extension string) (*Engine, error) {
	if files == nil {
		return nil, errors.New("gotemplate: template filesystem required")
	}
	extension = strings.TrimSpace(extension)
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	registerFilters.Do(func() {
		for name, fn := range map[string]pongo2.FilterFunction{
			"trim":    filterTrim,
			"tojson":  filterToJSON,
			"cssvars": filterCSSVars,
		} {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
	return &Engine{
		set:       pongo2.NewSet("formflow", pongo2.NewFSLoader(files)),
		extension: extension,
		files:     make(map[string]*pongo2.Template),
	}, nil
}

// RenderTemplate executes the named file.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if !strings.HasSuffix(name, e.extension) {
		name += e.extension
	}
	tmpl, err := e.load(name)
	if err != nil {
		return "", err
	}
	return execute(tmpl, name, data, out)
}

// RenderString parses and executes inline template content.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return execute(tmpl, "inline", data, out)
}

func (e *Engine) load(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.files[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.files[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", name, err)
	}
	e.files[name] = tmpl
	return tmpl, nil
}

func execute(tmpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	ctx, err := viewContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data for %q: %w", name, err)
	}
	rendered, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %q: %w", name, err)
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// viewContext flattens data to JSON shapes so templates address struct fields by
// their json names and every map has string keys.
func viewContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	ctx := pongo2.Context{}
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterToJSON encodes the value for embedding inside a script element.
// encoding/json escapes <, > and & so the payload cannot close the element.
// The result is marked safe.
func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	payload, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(string(payload)), nil
}

// filterCSSVars renders a map of custom properties as a style declaration
// list sorted by name ("--brand: #123; --radius: 4px").
func filterCSSVars(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	vars, ok := in.Interface().(map[string]any)
	if !ok || len(vars) == 0 {
		return pongo2.AsValue(""), nil
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		if strings.HasPrefix(name, "--") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := strings.TrimSpace(fmt.Sprint(vars[name]))
		if value == "" || strings.ContainsAny(value, ";{}<>") {
			continue
		}
		parts = append(parts, name+": "+value)
	}
	return pongo2.AsValue(strings.Join(parts, "; ")), nil
}
