package compute

import "fmt"

// All validation failures below are raised at the call site before any
// backend call is issued; a rejected operation has no partial side effects.
// They indicate programmer error in argument construction and are never
// retried. Failures originating inside a backend propagate unchanged.

// ShapeError reports an invalid stride, a shape mismatch, or a rank that is
// too low for the requested operation.
type ShapeError struct {
	Op     string
	Reason string
	Axis   int   // offending axis for stride violations, -1 otherwise
	Stride int   // requested stride on Axis
	Min    int   // minimum legal stride on Axis
	Want   []int // expected shape, when applicable
	Got    []int // actual shape, when applicable
}

func (e *ShapeError) Error() string {
	switch {
	case e.Axis >= 0:
		return fmt.Sprintf("%s: stride %d on axis %d below minimum %d", e.Op, e.Stride, e.Axis, e.Min)
	case e.Want != nil || e.Got != nil:
		return fmt.Sprintf("%s: %s: want %v, got %v", e.Op, e.Reason, e.Want, e.Got)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
}

// DatatypeMismatchError reports operands that do not share an element type.
type DatatypeMismatchError struct {
	Op   string
	Want DataType
	Got  []DataType
}

func (e *DatatypeMismatchError) Error() string {
	return fmt.Sprintf("%s: datatype mismatch: want %s, got %v", e.Op, e.Want, e.Got)
}

// DeviceMismatchError reports operands living on different devices.
type DeviceMismatchError struct {
	Op   string
	Want string
	Got  string
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf("%s: device mismatch: %s vs %s", e.Op, e.Want, e.Got)
}

// DriverMismatchError reports operands whose devices belong to different
// backend drivers. Even dense bulk copies cannot cross drivers.
type DriverMismatchError struct {
	Op   string
	Want string
	Got  string
}

func (e *DriverMismatchError) Error() string {
	return fmt.Sprintf("%s: driver mismatch: %s vs %s", e.Op, e.Want, e.Got)
}

// IncommensurateError reports two element counts that violate the
// broadcasting contract: the smaller count must evenly divide the larger.
type IncommensurateError struct {
	Op          string
	DestEcount  int
	OtherEcount int
}

func (e *IncommensurateError) Error() string {
	return fmt.Sprintf("%s: element counts %d and %d are not commensurate", e.Op, e.DestEcount, e.OtherEcount)
}

// AliasError reports a partial overlap between distinct logical operands, or
// an illegal exact alias (e.g. an activation gradient written over the
// forward output it reads).
type AliasError struct {
	Op     string
	Reason string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// UnsupportedOperandError reports a wrong operand kind, count, or operation
// name for an entry point.
type UnsupportedOperandError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// PrecisionError reports a datatype outside float32/float64 where the
// backend demands full precision.
type PrecisionError struct {
	Op  string
	Got DataType
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("%s: datatype %s unsupported, need float32 or float64", e.Op, e.Got)
}

// MissingContextError reports an operation issued without an execution
// context bound.
type MissingContextError struct {
	Op string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%s: no execution context bound", e.Op)
}
