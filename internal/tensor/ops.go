package tensor

import "math"

// Op names an elementwise operation. One enum covers the unary, binary and
// ternary families plus the activations the gradient kernel understands;
// each entry point checks its operand class before dispatching.
type Op int

const (
	// Unary: dest = op(alpha * x).
	Ceil Op = iota
	Round
	Floor
	Neg
	Tanh
	Logistic

	// Binary: dest = alpha*x op beta*y.
	Add
	Sub
	Mul
	Div
	Max
	Min

	// Ternary.
	Select

	// Activations understood by the gradient kernel only.
	ReLU

	numOps
)

const (
	unaryOps uint8 = 1 << iota
	binaryOps
	ternaryOps
	activationOps
)

var opClass = [numOps]uint8{
	Ceil:     unaryOps,
	Round:    unaryOps,
	Floor:    unaryOps,
	Neg:      unaryOps,
	Tanh:     unaryOps | activationOps,
	Logistic: unaryOps | activationOps,
	Add:      binaryOps,
	Sub:      binaryOps,
	Mul:      binaryOps,
	Div:      binaryOps,
	Max:      binaryOps,
	Min:      binaryOps,
	Select:   ternaryOps,
	ReLU:     activationOps,
}

var opString = [numOps]string{
	Ceil:     "ceil",
	Round:    "round",
	Floor:    "floor",
	Neg:      "neg",
	Tanh:     "tanh",
	Logistic: "logistic",
	Add:      "add",
	Sub:      "sub",
	Mul:      "mul",
	Div:      "div",
	Max:      "max",
	Min:      "min",
	Select:   "select",
	ReLU:     "relu",
}

func (op Op) String() string {
	if op < 0 || op >= numOps {
		return "invalid"
	}
	return opString[op]
}

// IsUnary reports whether op belongs to the unary family.
func (op Op) IsUnary() bool { return op.is(unaryOps) }

// IsBinary reports whether op belongs to the binary family.
func (op Op) IsBinary() bool { return op.is(binaryOps) }

// IsTernary reports whether op belongs to the ternary family.
func (op Op) IsTernary() bool { return op.is(ternaryOps) }

// IsActivation reports whether op names an activation the gradient kernel
// understands.
func (op Op) IsActivation() bool { return op.is(activationOps) }

func (op Op) is(class uint8) bool {
	return op >= 0 && op < numOps && opClass[op]&class != 0
}

// EvalUnary computes op(x) for a unary op. Used for the scalar fast path
// and by reference kernels.
func EvalUnary(op Op, x float64) float64 {
	switch op {
	case Ceil:
		return math.Ceil(x)
	case Round:
		return math.Round(x)
	case Floor:
		return math.Floor(x)
	case Neg:
		return -x
	case Tanh:
		return math.Tanh(x)
	case Logistic:
		return 1 / (1 + math.Exp(-x))
	default:
		panic("not a unary op: " + op.String())
	}
}

// EvalBinary computes x op y for a binary op, operands already scaled.
func EvalBinary(op Op, x, y float64) float64 {
	switch op {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case Div:
		return x / y
	case Max:
		return math.Max(x, y)
	case Min:
		return math.Min(x, y)
	default:
		panic("not a binary op: " + op.String())
	}
}

// EvalTernary computes op(x, y, z) for a ternary op, operands already
// scaled. Select yields z when x >= 0 and y otherwise.
func EvalTernary(op Op, x, y, z float64) float64 {
	switch op {
	case Select:
		if x >= 0 {
			return z
		}
		return y
	default:
		panic("not a ternary op: " + op.String())
	}
}

// TernarySlot names the logical position an operand fills in a ternary op.
// Kernel variants that fold constants receive the slot of each surviving
// tensor argument so they can reconstruct the original operand order.
type TernarySlot int

const (
	SlotX TernarySlot = iota
	SlotY
	SlotZ
)

func (s TernarySlot) String() string {
	switch s {
	case SlotX:
		return "x"
	case SlotY:
		return "y"
	case SlotZ:
		return "z"
	default:
		return "invalid"
	}
}
