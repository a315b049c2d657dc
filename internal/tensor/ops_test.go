package tensor

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, expected, actual float64, msg string) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-12 {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func TestOpClasses(t *testing.T) {
	cases := []struct {
		op                                   Op
		unary, binary, ternary, activation bool
	}{
		{Ceil, true, false, false, false},
		{Round, true, false, false, false},
		{Floor, true, false, false, false},
		{Neg, true, false, false, false},
		{Tanh, true, false, false, true},
		{Logistic, true, false, false, true},
		{Add, false, true, false, false},
		{Sub, false, true, false, false},
		{Mul, false, true, false, false},
		{Div, false, true, false, false},
		{Max, false, true, false, false},
		{Min, false, true, false, false},
		{Select, false, false, true, false},
		{ReLU, false, false, false, true},
	}
	for _, tt := range cases {
		if tt.op.IsUnary() != tt.unary {
			t.Errorf("%s.IsUnary() = %v, want %v", tt.op, tt.op.IsUnary(), tt.unary)
		}
		if tt.op.IsBinary() != tt.binary {
			t.Errorf("%s.IsBinary() = %v, want %v", tt.op, tt.op.IsBinary(), tt.binary)
		}
		if tt.op.IsTernary() != tt.ternary {
			t.Errorf("%s.IsTernary() = %v, want %v", tt.op, tt.op.IsTernary(), tt.ternary)
		}
		if tt.op.IsActivation() != tt.activation {
			t.Errorf("%s.IsActivation() = %v, want %v", tt.op, tt.op.IsActivation(), tt.activation)
		}
	}
}

func TestOpString(t *testing.T) {
	if Tanh.String() != "tanh" || Select.String() != "select" || ReLU.String() != "relu" {
		t.Errorf("unexpected op names: %s %s %s", Tanh, Select, ReLU)
	}
	if Op(-1).String() != "invalid" || Op(numOps).String() != "invalid" {
		t.Error("out-of-range ops must stringify as invalid")
	}
}

func TestEvalUnary(t *testing.T) {
	assertClose(t, 2, EvalUnary(Ceil, 1.2), "ceil")
	assertClose(t, 1, EvalUnary(Round, 1.2), "round")
	assertClose(t, 1, EvalUnary(Floor, 1.8), "floor")
	assertClose(t, -3.5, EvalUnary(Neg, 3.5), "neg")
	assertClose(t, math.Tanh(0.7), EvalUnary(Tanh, 0.7), "tanh")
	assertClose(t, 0.5, EvalUnary(Logistic, 0), "logistic at zero")
	assertClose(t, 1/(1+math.Exp(2)), EvalUnary(Logistic, -2), "logistic")
}

func TestEvalBinary(t *testing.T) {
	assertClose(t, 5, EvalBinary(Add, 2, 3), "add")
	assertClose(t, -1, EvalBinary(Sub, 2, 3), "sub")
	assertClose(t, 6, EvalBinary(Mul, 2, 3), "mul")
	assertClose(t, 2.5, EvalBinary(Div, 5, 2), "div")
	assertClose(t, 3, EvalBinary(Max, 2, 3), "max")
	assertClose(t, 2, EvalBinary(Min, 2, 3), "min")
}

func TestEvalTernarySelect(t *testing.T) {
	// Select yields z when x >= 0 and y otherwise.
	assertClose(t, 7, EvalTernary(Select, 1, 3, 7), "positive selector")
	assertClose(t, 7, EvalTernary(Select, 0, 3, 7), "zero selector")
	assertClose(t, 3, EvalTernary(Select, -1, 3, 7), "negative selector")
}

func TestTernarySlotString(t *testing.T) {
	if SlotX.String() != "x" || SlotY.String() != "y" || SlotZ.String() != "z" {
		t.Errorf("slot names: %s %s %s", SlotX, SlotY, SlotZ)
	}
}
