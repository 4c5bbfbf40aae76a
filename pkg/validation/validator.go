package validation

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Default ceilings.
const (
	DefaultMaxSizeBytes     = 500 * 1024
	DefaultMaxSteps         = 20
	DefaultMaxFieldsPerStep = 50
	DefaultMaxNestingDepth  = 3
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Limits configures validator ceilings. Zero values fall back to defaults.
type Limits struct {
	MaxSizeBytes     int `json:"max_size_bytes" yaml:"max_size_bytes"`
	MaxSteps         int `json:"max_steps" yaml:"max_steps"`
	MaxFieldsPerStep int `json:"max_fields_per_step" yaml:"max_fields_per_step"`
	MaxNestingDepth  int `json:"max_nesting_depth" yaml:"max_nesting_depth"`
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{}.withDefaults()
}

func (l Limits) withDefaults() Limits {
	return Limits{
		MaxSizeBytes:     cmp.Or(l.MaxSizeBytes, DefaultMaxSizeBytes),
		MaxSteps:         cmp.Or(l.MaxSteps, DefaultMaxSteps),
		MaxFieldsPerStep: cmp.Or(l.MaxFieldsPerStep, DefaultMaxFieldsPerStep),
		MaxNestingDepth:  cmp.Or(l.MaxNestingDepth, DefaultMaxNestingDepth),
	}
}

// Result reports structural errors (blocking) and advisory warnings.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Option configures a Validator.
type Option func(*Validator)

// WithLimits replaces all ceilings. Zero entries keep their defaults.
func WithLimits(limits Limits) Option {
	return func(v *Validator) {
		v.limits = limits.withDefaults()
	}
}

// WithMaxSizeBytes overrides the serialized size ceiling.
func WithMaxSizeBytes(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.limits.MaxSizeBytes = n
		}
	}
}

// WithMaxSteps overrides the step count ceiling.
func WithMaxSteps(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.limits.MaxSteps = n
		}
	}
}

// WithMaxFieldsPerStep overrides the soft per-step field ceiling.
func WithMaxFieldsPerStep(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.limits.MaxFieldsPerStep = n
		}
	}
}

// WithMaxNestingDepth overrides the container nesting ceiling.
func WithMaxNestingDepth(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.limits.MaxNestingDepth = n
		}
	}
}

// WithBranchNesting measures nesting per branch instead of the default single
// running counter over every layout container in the schema.
func WithBranchNesting() Option {
	return func(v *Validator) {
		v.branchNesting = true
	}
}

// WithRegistry supplies the field type registry used for layout exemptions
// and unknown-type warnings. Without one, only the built-in layout list is
// consulted and type warnings are skipped.
func WithRegistry(reg *fieldtypes.Registry) Option {
	return func(v *Validator) {
		v.registry = reg
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Validator checks a schema against structural invariants. It is stateless
// between calls and safe for concurrent use.
type Validator struct {
	limits        Limits
	branchNesting bool
	registry      *fieldtypes.Registry
	logger        *zap.Logger
}

// New constructs a Validator.
func New(options ...Option) *Validator {
	v := &Validator{
		limits: DefaultLimits(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Limits returns the effective ceilings.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate runs every check without stopping at the first failure.
func Validate(s schema.Schema) Result {
	return New().Validate(s)
}

// Validate runs every check without stopping at the first failure and
// returns all errors and warnings found.
func (v *Validator) Validate(s schema.Schema) Result {
	w := &walker{
		v:      v,
		counts: make(map[string]int),
		result: Result{Errors: []string{}, Warnings: []string{}},
	}

	size, err := s.Size()
	if err != nil {
		w.errorf("Schema could not be serialized: %v", err)
	} else if size > v.limits.MaxSizeBytes {
		w.errorf("Schema size (%s) exceeds maximum allowed size (%s)", formatBytes(size), formatBytes(v.limits.MaxSizeBytes))
	}

	if len(s.Steps) > v.limits.MaxSteps {
		w.errorf("Schema has %d steps; maximum allowed is %d", len(s.Steps), v.limits.MaxSteps)
	}
	if len(s.Steps) == 0 {
		w.errorf("Schema must have at least one step")
	}

	for _, name := range s.Names() {
		w.counts[name]++
	}
	known := make(map[string]struct{}, len(w.counts))
	for name := range w.counts {
		known[name] = struct{}{}
	}
	w.known = known

	seenSteps := make(map[string]int)
	for idx, step := range s.Steps {
		stepNo := idx + 1
		switch id := strings.TrimSpace(step.ID); {
		case id == "":
			w.warnf("Step %d has no id; one will be generated at render time", stepNo)
		case seenSteps[id] > 0:
			w.warnf("Step %d reuses step id %q from step %d", stepNo, id, seenSteps[id])
		default:
			seenSteps[id] = stepNo
		}

		if count := countFields(step.Fields); count > v.limits.MaxFieldsPerStep {
			w.warnf("Step %d has %d fields; more than %d fields per step may affect performance", stepNo, count, v.limits.MaxFieldsPerStep)
		}

		w.checkRules(fmt.Sprintf("Step %d", stepNo), step.Conditions, true)
		w.walkFields(stepNo, step.Fields, "", 0)
	}

	w.result.Valid = len(w.result.Errors) == 0
	v.logger.Debug("schema validated",
		zap.Bool("valid", w.result.Valid),
		zap.Int("errors", len(w.result.Errors)),
		zap.Int("warnings", len(w.result.Warnings)),
	)
	return w.result
}

type walker struct {
	v       *Validator
	counts  map[string]int
	known   map[string]struct{}
	nesting int
	result  Result
}

func (w *walker) errorf(format string, args ...any) {
	w.result.Errors = append(w.result.Errors, fmt.Sprintf(format, args...))
}

func (w *walker) warnf(format string, args ...any) {
	w.result.Warnings = append(w.result.Warnings, fmt.Sprintf(format, args...))
}

func (w *walker) walkFields(stepNo int, fields []schema.Field, prefix string, branchDepth int) {
	for idx, field := range fields {
		position := strconv.Itoa(idx + 1)
		if prefix != "" {
			position = prefix + "." + position
		}
		where := fmt.Sprintf("Step %d, field %s", stepNo, position)
		w.checkField(where, field)

		depth := branchDepth
		if w.isLayoutContainer(field.Type) {
			w.nesting++
			depth++
			current := w.nesting
			if w.v.branchNesting {
				current = depth
			}
			if current > w.v.limits.MaxNestingDepth {
				w.errorf("%s: container nesting exceeds maximum (%d levels)", where, w.v.limits.MaxNestingDepth)
			}
		}

		if len(field.Children) > 0 {
			if field.Type != "" && !w.isContainer(field.Type) {
				w.warnf("%s: children of non-container type %q are ignored", where, field.Type)
			}
			w.walkFields(stepNo, field.Children, position, depth)
		}
	}
}

func (w *walker) checkField(where string, field schema.Field) {
	fieldType := strings.TrimSpace(field.Type)
	name := strings.TrimSpace(field.Name)

	if fieldType == "" {
		w.errorf("%s: field type is required", where)
	} else if reg := w.v.registry; reg != nil {
		if def, ok := reg.Get(fieldType); !ok {
			w.warnf("%s: unknown field type %q", where, fieldType)
		} else {
			for key := range field.Settings {
				if _, known := def.Setting(key); !known {
					w.warnf("%s: unknown setting %q for type %q", where, key, fieldType)
				}
			}
		}
	}

	if name == "" {
		if fieldType != "" && !w.isLayout(fieldType) {
			w.errorf("%s: field name is required for %q fields", where, fieldType)
		}
	} else {
		// Match the raw name: padded names would be persisted as authored.
		if !namePattern.MatchString(field.Name) {
			w.errorf("%s: field name %q is invalid; it must start with a letter and contain only letters, numbers, underscores or hyphens", where, field.Name)
		}
		if w.counts[name] > 1 {
			w.errorf("%s: duplicate field name %q", where, name)
		}
	}

	w.checkRules(where, field.Conditions, false)
}

func (w *walker) checkRules(where string, rules []schema.Rule, step bool) {
	for idx, rule := range rules {
		label := fmt.Sprintf("%s, condition %d", where, idx+1)
		if !rule.Action.Valid() {
			w.warnf("%s: unknown action %q", label, rule.Action)
			continue
		}
		if step && rule.Action != schema.ActionShow && rule.Action != schema.ActionHide {
			w.warnf("%s: action %q is not supported on steps", label, rule.Action)
			continue
		}
		node, err := expr.Compile(rule.When)
		if err != nil {
			w.warnf("%s: invalid expression: %v", label, err)
			continue
		}
		for _, ref := range node.Vars() {
			root, _, _ := strings.Cut(ref, ".")
			if strings.EqualFold(root, "extras") {
				continue
			}
			if _, ok := w.known[ref]; ok {
				continue
			}
			if _, ok := w.known[root]; ok {
				continue
			}
			w.warnf("%s: expression references unknown field %q", label, ref)
		}
	}
}

func (w *walker) isLayout(fieldType string) bool {
	if w.v.registry != nil {
		return w.v.registry.IsLayout(fieldType)
	}
	return fieldtypes.IsLayoutType(fieldType)
}

func (w *walker) isLayoutContainer(fieldType string) bool {
	if w.v.registry != nil {
		return w.v.registry.IsLayoutContainer(fieldType)
	}
	return fieldType == fieldtypes.TypeColumns || fieldType == fieldtypes.TypeSection
}

func (w *walker) isContainer(fieldType string) bool {
	if w.v.registry != nil {
		return w.v.registry.IsContainer(fieldType)
	}
	switch fieldType {
	case fieldtypes.TypeColumns, fieldtypes.TypeSection, fieldtypes.TypeRepeater:
		return true
	default:
		return false
	}
}

func countFields(fields []schema.Field) int {
	count := 0
	schema.Walk(fields, func(schema.Field, int) bool {
		count++
		return true
	})
	return count
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return strconv.FormatFloat(float64(n)/(1024*1024), 'f', 1, 64) + " MB"
	case n >= 1024:
		return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64) + " KB"
	default:
		return strconv.Itoa(n) + " B"
	}
}
