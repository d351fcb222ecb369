package command

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(3 + 4) * 5", 35},
		{"2^8", 256},
		{"2**8", 256},
		{"2^3^2", 512}, // right-associative
		{"-5 + 3", -2},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"sqrt(16)", 4},
		{"sqrt(16) + sin(pi/2)", 5},
		{"log10(1000)", 3},
		{"pow(2, 10)", 1024},
		{"abs(-3.5)", 3.5},
		{"floor(2.9) + ceil(2.1)", 5},
		{"pi", math.Pi},
		{"e", math.E},
		{"1.5e2", 150},
		{"-(2 + 3)", -5},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := EvalExpression(tt.expr)
			if err != nil {
				t.Fatalf("EvalExpression(%q) failed: %v", tt.expr, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EvalExpression(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalExpression_Errors(t *testing.T) {
	tests := []string{
		"",
		"2 +",
		"(2 + 3",
		"1 / 0",
		"10 % 0",
		"nosuchfn(2)",
		"nosuchconst",
		"2 $ 3",
		"sqrt(1, 2)",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			if _, err := EvalExpression(expr); err == nil {
				t.Errorf("EvalExpression(%q) should fail", expr)
			}
		})
	}
}

func TestCalcUnit_Execute(t *testing.T) {
	unit := NewCalc()
	ctx := context.Background()

	res := unit.Execute(ctx, "2 + 3 * 4", nil)
	if res.Failed() {
		t.Fatalf("Execute failed: %s", res.Err)
	}
	if res.Type != "calculation" {
		t.Errorf("Type = %q, want calculation", res.Type)
	}
	if got := res.Data["result"].(float64); got != 14 {
		t.Errorf("result = %v, want 14", got)
	}
	if !strings.Contains(res.Content, "= 14") {
		t.Errorf("Content = %q, want it to contain \"= 14\"", res.Content)
	}
}

func TestCalcUnit_EmptyArgReturnsUsage(t *testing.T) {
	unit := NewCalc()

	res := unit.Execute(context.Background(), "", nil)
	if res.Failed() {
		t.Fatalf("empty argument should yield usage help, got error: %s", res.Err)
	}
	if res.Type != "help" {
		t.Errorf("Type = %q, want help", res.Type)
	}
	if !strings.Contains(res.Content, "calc:") {
		t.Errorf("usage text should mention invocation syntax, got %q", res.Content)
	}
}

func TestCalcUnit_SubVerbs(t *testing.T) {
	unit := NewCalc()
	ctx := context.Background()

	res := unit.Execute(ctx, "functions", nil)
	if res.Failed() || res.Type != "functions_list" {
		t.Errorf("functions: Type = %q, Err = %q", res.Type, res.Err)
	}
	if !strings.Contains(res.Content, "sqrt(x)") {
		t.Errorf("functions listing should include sqrt, got %q", res.Content)
	}

	res = unit.Execute(ctx, "constants", nil)
	if res.Failed() || res.Type != "constants_list" {
		t.Errorf("constants: Type = %q, Err = %q", res.Type, res.Err)
	}
	if !strings.Contains(res.Content, "pi") {
		t.Errorf("constants listing should include pi, got %q", res.Content)
	}
}

func TestCalcUnit_BadExpressionIsFailure(t *testing.T) {
	unit := NewCalc()

	res := unit.Execute(context.Background(), "2 +* 3", nil)
	if !res.Failed() {
		t.Fatal("invalid expression should produce an error Result")
	}
	if res.Content != "" || len(res.Data) != 0 {
		t.Error("error Result must not carry a success payload")
	}
}

func TestCalcUnit_Descriptor(t *testing.T) {
	d := NewCalc().Descriptor()
	if d.Name != "calc" {
		t.Errorf("Name = %q, want calc", d.Name)
	}
	if !d.ContextProvider {
		t.Error("calc must be a context provider")
	}
	if !d.MachineCallable {
		t.Error("calc must be machine-callable")
	}
}
