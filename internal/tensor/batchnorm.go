package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// BatchNormMinEpsilon is the smallest epsilon the batch-normalization
// kernels accept. The floor is numerical, not stylistic: backends feed
// 1/sqrt(variance+epsilon) into the normalization and demand this bound.
const BatchNormMinEpsilon = 1e-5

// BatchNormalize normalizes input into output using externally supplied
// statistics: output = scale*(input-means)/sqrt(variances+epsilon) + bias.
//
// A rank-2 input selects eltwise mode with statistics keyed by the
// trailing feature axis; higher ranks select spatial mode with statistics
// keyed by the channel axis and broadcast across the trailing spatial
// extent.
func BatchNormalize(ctx *Context, output, input, means, variances, scale, bias *Tensor, epsilon float64) error {
	const op = "batch-normalize"
	if err := ctx.check(op); err != nil {
		return err
	}
	mode, desc, err := batchNormSetup(op, output, input, epsilon,
		[]*Tensor{means, variances, scale, bias})
	if err != nil {
		return err
	}
	return ctx.Queue().BatchNormalize(mode, desc,
		output.Buffer(), input.Buffer(), means.Buffer(), variances.Buffer(),
		scale.Buffer(), bias.Buffer(), epsilon)
}

// BatchNormalizeUpdateAndApply computes the batch statistics of input,
// blends them into the running statistics as
// running = running*(1-aveFactor) + batch*aveFactor, and normalizes input
// into output with the batch statistics.
//
// The representation stored in batchVariances is backend-defined and must
// not be compared across backends; only the running statistics are
// portable. The captured batch statistics exist to feed
// BatchNormalizeGradients for the same forward call.
func BatchNormalizeUpdateAndApply(ctx *Context, output, input,
	batchMeans, batchVariances, runningMeans, runningVariances *Tensor,
	aveFactor float64, scale, bias *Tensor, epsilon float64) error {
	const op = "batch-normalize-update-and-apply"
	if err := ctx.check(op); err != nil {
		return err
	}
	mode, desc, err := batchNormSetup(op, output, input, epsilon,
		[]*Tensor{batchMeans, batchVariances, runningMeans, runningVariances, scale, bias})
	if err != nil {
		return err
	}
	return ctx.Queue().BatchNormalizeUpdate(mode, desc,
		output.Buffer(), input.Buffer(),
		batchMeans.Buffer(), batchVariances.Buffer(),
		runningMeans.Buffer(), runningVariances.Buffer(),
		aveFactor, scale.Buffer(), bias.Buffer(), epsilon)
}

// BatchNormalizeGradients computes the input, scale and bias gradients of
// a batch-normalization forward pass. batchMeans and batchVariances must
// be the exact statistics captured by BatchNormalizeUpdateAndApply for the
// same forward call; recomputing them is not a substitute.
func BatchNormalizeGradients(ctx *Context,
	inputGradient, scaleGradient, biasGradient, outputGradient *Tensor,
	output, input, batchMeans, batchVariances, scale, bias *Tensor,
	epsilon float64) error {
	const op = "batch-normalize-gradients"
	if err := ctx.check(op); err != nil {
		return err
	}
	mode, desc, err := batchNormSetup(op, output, input, epsilon,
		[]*Tensor{batchMeans, batchVariances, scale, bias, scaleGradient, biasGradient})
	if err != nil {
		return err
	}
	if !inputGradient.Dims().ShapeEqual(input.Dims()) {
		return &compute.ShapeError{
			Op:     op,
			Reason: "input gradient shape mismatch",
			Axis:   -1,
			Want:   input.Shape(),
			Got:    inputGradient.Shape(),
		}
	}
	if !outputGradient.Dims().ShapeEqual(output.Dims()) {
		return &compute.ShapeError{
			Op:     op,
			Reason: "output gradient shape mismatch",
			Axis:   -1,
			Want:   output.Shape(),
			Got:    outputGradient.Shape(),
		}
	}
	if err := sameDatatype(op, inputGradient, outputGradient, input); err != nil {
		return err
	}
	if err := sameDevice(op, inputGradient, outputGradient, input); err != nil {
		return err
	}
	if err := denseOperands(op, inputGradient, outputGradient); err != nil {
		return err
	}
	return ctx.Queue().BatchNormalizeGradients(mode, desc,
		inputGradient.Buffer(), scaleGradient.Buffer(), biasGradient.Buffer(),
		outputGradient.Buffer(), output.Buffer(), input.Buffer(),
		batchMeans.Buffer(), batchVariances.Buffer(),
		scale.Buffer(), bias.Buffer(), epsilon)
}

// batchNormSetup runs the validation shared by the three batch-norm
// operations and derives the mode and the [batch, channels, spatial]
// descriptor. Every operand must be dense: the queue entry points carry
// bare buffers and the kernels address input, output and statistics
// contiguously.
func batchNormSetup(op string, output, input *Tensor, epsilon float64, stats []*Tensor) (BatchNormMode, BatchNormDesc, error) {
	operands := append([]*Tensor{output, input}, stats...)
	if err := sameDatatype(op, operands...); err != nil {
		return 0, BatchNormDesc{}, err
	}
	if !output.DType().IsFloat() {
		return 0, BatchNormDesc{}, &compute.PrecisionError{Op: op, Got: output.DType()}
	}
	if err := sameDevice(op, operands...); err != nil {
		return 0, BatchNormDesc{}, err
	}
	if epsilon < BatchNormMinEpsilon {
		return 0, BatchNormDesc{}, &compute.UnsupportedOperandError{
			Op:     op,
			Reason: fmt.Sprintf("epsilon %g below minimum %g", epsilon, BatchNormMinEpsilon),
		}
	}
	if !input.Dims().ShapeEqual(output.Dims()) {
		return 0, BatchNormDesc{}, &compute.ShapeError{
			Op:     op,
			Reason: "input/output shape mismatch",
			Axis:   -1,
			Want:   input.Shape(),
			Got:    output.Shape(),
		}
	}
	for _, s := range stats {
		if !s.Dims().ShapeEqual(stats[0].Dims()) {
			return 0, BatchNormDesc{}, &compute.ShapeError{
				Op:     op,
				Reason: "statistic operands must share a shape",
				Axis:   -1,
				Want:   stats[0].Shape(),
				Got:    s.Shape(),
			}
		}
		if !s.Dims().VectorIndexable() {
			return 0, BatchNormDesc{}, &compute.ShapeError{
				Op:     op,
				Reason: fmt.Sprintf("statistic view %s is not vector-indexable", s.Dims()),
				Axis:   -1,
			}
		}
	}
	if err := denseOperands(op, operands...); err != nil {
		return 0, BatchNormDesc{}, err
	}

	shape := input.Shape()
	if len(shape) < 2 {
		return 0, BatchNormDesc{}, &compute.ShapeError{
			Op:     op,
			Reason: "input rank must be at least 2",
			Axis:   -1,
			Got:    shape,
		}
	}

	statLen := stats[0].Ecount()
	if len(shape) == 2 {
		if statLen != shape[1] {
			return 0, BatchNormDesc{}, &compute.ShapeError{
				Op:     op,
				Reason: "eltwise statistics must match the feature axis",
				Axis:   -1,
				Want:   []int{shape[1]},
				Got:    []int{statLen},
			}
		}
		return BatchNormEltwise, BatchNormDesc{Batch: shape[0], Channels: shape[1], Spatial: 1}, nil
	}

	channels := shape[1]
	if statLen != channels {
		return 0, BatchNormDesc{}, &compute.ShapeError{
			Op:     op,
			Reason: "spatial statistics must match the channel axis",
			Axis:   -1,
			Want:   []int{channels},
			Got:    []int{statLen},
		}
	}
	spatial := 1
	for _, extent := range shape[2:] {
		spatial *= extent
	}
	return BatchNormSpatial, BatchNormDesc{Batch: shape[0], Channels: channels, Spatial: spatial}, nil
}
