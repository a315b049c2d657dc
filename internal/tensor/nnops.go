package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// ActivationGradient computes inputGradient from outputGradient and the
// forward output, using the closed-form derivative of act expressed in
// terms of the output: logistic is out*(1-out)*dOut, tanh is
// (1-out*out)*dOut, relu passes dOut where out > 0 and zero elsewhere.
//
// The gradient buffer must not alias the output buffer: the kernel reads
// output while writing inputGradient, so an in-place form would corrupt
// its own input. All three operands must be dense; the kernel walks
// elements flat.
func ActivationGradient(ctx *Context, inputGradient, outputGradient, output *Tensor, act Op) error {
	opName := "activation-gradient " + act.String()
	if err := ctx.check(opName); err != nil {
		return err
	}
	if !act.IsActivation() {
		return &compute.UnsupportedOperandError{
			Op:     opName,
			Reason: fmt.Sprintf("%s is not a supported activation", act),
		}
	}

	driver := inputGradient.Device().Driver()
	if driver.Alias(inputGradient.Buffer(), output.Buffer()) ||
		driver.PartialAlias(inputGradient.Buffer(), output.Buffer()) {
		return &compute.AliasError{
			Op:     opName,
			Reason: "input gradient must not alias the forward output",
		}
	}

	if inputGradient.Ecount() != outputGradient.Ecount() || inputGradient.Ecount() != output.Ecount() {
		return &compute.ShapeError{
			Op:     opName,
			Reason: "element count mismatch",
			Axis:   -1,
			Want:   []int{output.Ecount()},
			Got:    []int{inputGradient.Ecount(), outputGradient.Ecount()},
		}
	}
	if err := sameDatatype(opName, inputGradient, outputGradient, output); err != nil {
		return err
	}
	if err := sameDevice(opName, inputGradient, outputGradient, output); err != nil {
		return err
	}
	if err := noPartialOverlap(opName, inputGradient, outputGradient, output); err != nil {
		return err
	}
	if err := denseOperands(opName, inputGradient, outputGradient, output); err != nil {
		return err
	}

	return ctx.Queue().ActivationGradient(
		inputGradient.Buffer(), outputGradient.Buffer(), output.Buffer(),
		act, inputGradient.Ecount())
}

// Softmax normalizes each batch row of input into output. The leading axis
// is the batch; every remaining axis collapses into one feature axis, and
// the backend normalizes each row independently. Input and output shapes
// must match exactly and both views must be dense.
func Softmax(ctx *Context, output, input *Tensor) error {
	const op = "softmax"
	if err := ctx.check(op); err != nil {
		return err
	}
	if !input.Dims().ShapeEqual(output.Dims()) {
		return &compute.ShapeError{
			Op:     op,
			Reason: "input/output shape mismatch",
			Axis:   -1,
			Want:   input.Shape(),
			Got:    output.Shape(),
		}
	}
	if err := sameDatatype(op, output, input); err != nil {
		return err
	}
	if err := sameDevice(op, output, input); err != nil {
		return err
	}
	if err := noPartialOverlap(op, output, input); err != nil {
		return err
	}
	if err := denseOperands(op, output, input); err != nil {
		return err
	}

	batched := input.Dims().AsBatch()
	return ctx.Queue().Softmax(output.Buffer(), input.Buffer(),
		batched.Shape()[0], batched.Shape()[1])
}
