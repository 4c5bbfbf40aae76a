package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Node operators.
const (
	OpOr     = "or"
	OpAnd    = "and"
	OpNot    = "not"
	OpCmp    = "cmp"
	OpTruthy = "truthy"
	OpConst  = "const"
)

// Literal kinds.
const (
	LitString = "string"
	LitNumber = "number"
	LitBool   = "bool"
	LitNull   = "null"
)

// Node is a compiled expression. The JSON shape is consumed as-is by the
// browser runtime, so field names and semantics must stay in sync with
// formflow-runtime.js.
type Node struct {
	Op   string   `json:"op"`
	Args []Node   `json:"args,omitempty"`
	Var  string   `json:"var,omitempty"`
	Cmp  string   `json:"cmp,omitempty"`
	Lit  *Literal `json:"lit,omitempty"`
}

// Literal is the right-hand side of a comparison or the value of a constant.
type Literal struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// Always is the node compiled from an empty expression.
func Always() Node {
	return Node{Op: OpConst, Lit: &Literal{Kind: LitBool, Value: true}}
}

// Vars returns the distinct identifiers referenced by the node in first-seen
// order.
func (n Node) Vars() []string {
	var out []string
	seen := make(map[string]struct{})
	var visit func(Node)
	visit = func(node Node) {
		if node.Var != "" {
			if _, ok := seen[node.Var]; !ok {
				seen[node.Var] = struct{}{}
				out = append(out, node.Var)
			}
		}
		for _, arg := range node.Args {
			visit(arg)
		}
	}
	visit(n)
	return out
}

// Evaluate runs the node against ctx. Unknown operators evaluate to false.
func Evaluate(n Node, ctx Context) bool {
	switch n.Op {
	case OpOr:
		for _, arg := range n.Args {
			if Evaluate(arg, ctx) {
				return true
			}
		}
		return false
	case OpAnd:
		for _, arg := range n.Args {
			if !Evaluate(arg, ctx) {
				return false
			}
		}
		return true
	case OpNot:
		if len(n.Args) == 0 {
			return false
		}
		return !Evaluate(n.Args[0], ctx)
	case OpTruthy:
		value, ok := lookup(ctx, n.Var)
		if !ok {
			return false
		}
		return truthy(value)
	case OpConst:
		if n.Lit == nil {
			return false
		}
		b, _ := n.Lit.Value.(bool)
		return b
	case OpCmp:
		if n.Lit == nil {
			return false
		}
		value, ok := lookup(ctx, n.Var)
		if !ok {
			value = nil
		}
		return compare(value, n.Cmp, *n.Lit)
	default:
		return false
	}
}

func compare(value any, op string, lit Literal) bool {
	if items, ok := value.([]any); ok && (lit.Kind == LitString || lit.Kind == LitNumber) && (op == "==" || op == "!=") {
		found := false
		for _, item := range items {
			if compareScalar(item, "==", lit) {
				found = true
				break
			}
		}
		if op == "==" {
			return found
		}
		return !found
	}
	return compareScalar(value, op, lit)
}

func compareScalar(value any, op string, lit Literal) bool {
	switch lit.Kind {
	case LitNull:
		isNull := value == nil
		switch op {
		case "==":
			return isNull
		case "!=":
			return !isNull
		}
		return false
	case LitBool:
		want, _ := lit.Value.(bool)
		got := coerceBool(value)
		switch op {
		case "==":
			return got == want
		case "!=":
			return got != want
		}
		return false
	case LitNumber:
		want, ok := literalNumber(lit.Value)
		if !ok {
			return false
		}
		got, ok := coerceNumber(value)
		if !ok {
			return op == "!="
		}
		return orderCompare(op, cmpFloat(got, want))
	case LitString:
		want, _ := lit.Value.(string)
		got := coerceString(value)
		return orderCompare(op, strings.Compare(got, want))
	default:
		return false
	}
}

func orderCompare(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	default:
		return false
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func literalNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func lookup(ctx Context, key string) (any, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}

	if strings.HasPrefix(strings.ToLower(key), "extras.") {
		return lookupMap(ctx.Extras, strings.TrimSpace(key[len("extras."):]))
	}
	return lookupMap(ctx.Values, key)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}

	// Flattened dotted keys win over traversal.
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	if f, ok := numeric(value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func coerceBool(value any) bool {
	if s, ok := value.(string); ok {
		switch strings.TrimSpace(s) {
		case "1", "t", "T", "TRUE", "true", "True":
			return true
		case "0", "f", "F", "FALSE", "false", "False":
			return false
		}
	}
	return truthy(value)
}

var numberPattern = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?\s*$`)

func coerceNumber(value any) (float64, bool) {
	if s, ok := value.(string); ok {
		if !numberPattern.MatchString(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return numeric(value)
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
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
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for idx, item := range v {
			parts[idx] = coerceString(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return ""
	}
	if f, ok := numeric(value); ok {
		return formatNumber(f)
	}
	return ""
}

// formatNumber renders f the way JavaScript's Number.prototype.toString does,
// so string comparisons agree with the browser runtime.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f < 0:
		return "-" + formatNumber(-f)
	}

	// Shortest round-trip digits as d.ddde±x.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mantissa, ".", "", 1)
	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	e := n - 1
	if e < 0 {
		e = -e
	}
	if k == 1 {
		return digits + "e" + sign + strconv.Itoa(e)
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + strconv.Itoa(e)
}
