package expr

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluatorBooleanComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "enabled == true", Context{
		Values: map[string]any{"enabled": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("threshold", "enabled == true", Context{
		Values: map[string]any{"enabled": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for string true")
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "enabled", Context{
		Values: map[string]any{"enabled": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("threshold", "!enabled", Context{
		Values: map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for !false")
	}
}

func TestEvaluatorDotLookup(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("cta.headline", `cta.headline != ""`, Context{
		Values: map[string]any{"cta.headline": "Hello"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for flattened dotted key")
	}

	ok, err = eval.Eval("cta.headline", `cta.headline == "Hello"`, Context{
		Values: map[string]any{
			"cta": map[string]any{
				"headline": "Hello",
			},
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for nested map lookup")
	}
}

func TestEvaluatorNullLiteral(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", "missing == null", Context{
		Values: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for missing == null")
	}

	ok, err = eval.Eval("threshold", "enabled != null", Context{
		Values: map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for present != null")
	}
}

func TestEvaluatorBooleanComposition(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("threshold", `enabled == true && role == "admin"`, Context{
		Values: map[string]any{
			"enabled": true,
			"role":    "admin",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for conjunction")
	}

	ok, err = eval.Eval("threshold", `enabled == true && role == "admin"`, Context{
		Values: map[string]any{
			"enabled": true,
			"role":    "user",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for conjunction mismatch")
	}

	ok, err = eval.Eval("threshold", `enabled == true || role == "admin"`, Context{
		Values: map[string]any{
			"enabled": false,
			"role":    "admin",
		},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for disjunction")
	}
}


func TestEvaluatorOrderingOperators(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := Context{Values: map[string]any{"units": "3", "budget": 1500.0}}

	cases := []struct {
		rule string
		want bool
	}{
		{"units > 2", true},
		{"units >= 3", true},
		{"units < 3", false},
		{"units <= 3", true},
		{"budget>1000", true},
		{"budget < 1000.5", false},
	}
	for _, tc := range cases {
		got, err := eval.Eval("", tc.rule, ctx)
		if err != nil {
			t.Fatalf("%s: Eval returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.rule, tc.want, got)
		}
	}
}

func TestEvaluatorNonNumericComparesUnequal(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := Context{Values: map[string]any{"units": "many"}}

	for rule, want := range map[string]bool{
		"units == 2": false,
		"units != 2": true,
		"units > 2":  false,
	} {
		got, err := eval.Eval("", rule, ctx)
		if err != nil {
			t.Fatalf("%s: Eval returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("%s: expected %v, got %v", rule, want, got)
		}
	}
}

func TestEvaluatorArrayContains(t *testing.T) {
	t.Parallel()

	eval := New()
	ctx := Context{Values: map[string]any{
		"services": []any{"electric", "gas"},
	}}

	ok, err := eval.Eval("", `services == "gas"`, ctx)
	if err != nil || !ok {
		t.Fatalf("expected array to contain gas (ok=%v err=%v)", ok, err)
	}
	ok, err = eval.Eval("", `services != water`, ctx)
	if err != nil || !ok {
		t.Fatalf("expected array not to contain water (ok=%v err=%v)", ok, err)
	}
}

func TestEvaluatorExtrasPrefix(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("", `extras.role == "admin"`, Context{
		Extras: map[string]any{"role": "admin"},
	})
	if err != nil || !ok {
		t.Fatalf("expected extras lookup to match (ok=%v err=%v)", ok, err)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{
		"a = 1",
		"a & b",
		"(a",
		`a == "open`,
		"a ==",
		"a > true",
		"a b",
		"amount < +Inf",
		"amount > -inf",
		"amount == NaN + 1",
		"amount != +NaN",
	} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("%q: expected compile error", rule)
		}
	}
}

func TestCompileEmptyIsAlways(t *testing.T) {
	t.Parallel()

	node, err := Compile("   ")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if !Evaluate(node, Context{}) {
		t.Fatalf("expected empty expression to be true")
	}
}

func TestCompileVarsAndJSONShape(t *testing.T) {
	t.Parallel()

	node := MustCompile(`moving && (service == "gas" || !units) && moving != false`)
	if diff := cmp.Diff([]string{"moving", "service", "units"}, node.Vars()); diff != "" {
		t.Fatalf("vars mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(MustCompile(`units >= 2`))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"op":"cmp","var":"units","cmp":">=","lit":{"kind":"number","value":2}}`
	if string(raw) != want {
		t.Fatalf("unexpected JSON\nwant %s\ngot  %s", want, raw)
	}

	var decoded Node
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Evaluate(decoded, Context{Values: map[string]any{"units": 2}}) {
		t.Fatalf("expected decoded node to evaluate")
	}
}

func TestCoerceStringFormatsNumbersLikeJavaScript(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		0:                     "0",
		3:                     "3",
		-2.5:                  "-2.5",
		0.1:                   "0.1",
		123456789:             "123456789",
		1e20:                  "100000000000000000000",
		123456789012345680000: "123456789012345680000",
		1e21:                  "1e+21",
		1.5e22:                "1.5e+22",
		0.000001:              "0.000001",
		-0.0000015:            "-0.0000015",
		1e-7:                  "1e-7",
		1.25e-7:               "1.25e-7",
		5e-324:                "5e-324",
	}
	for in, want := range cases {
		if got := coerceString(in); got != want {
			t.Errorf("coerceString(%v) = %q, want %q", in, got, want)
		}
	}
}
