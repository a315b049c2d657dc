package tensor

import "github.com/substrate-ml/substrate/internal/compute"

// BatchNormMode selects how batch-normalization statistics map onto the
// input: eltwise keys them by the trailing feature axis of a rank-2 input,
// spatial keys them by the channel axis and broadcasts across the trailing
// spatial extent.
type BatchNormMode int

const (
	BatchNormEltwise BatchNormMode = iota
	BatchNormSpatial
)

func (m BatchNormMode) String() string {
	if m == BatchNormEltwise {
		return "eltwise"
	}
	return "spatial"
}

// BatchNormDesc is the [batch, channels, spatial] coercion of a
// batch-normalization input. Eltwise inputs have Spatial == 1.
type BatchNormDesc struct {
	Batch    int
	Channels int
	Spatial  int
}

// Queue is the backend contract: the execution stream plus one entry point
// per operation. Every method receives already-validated buffers, dimension
// views and scalar coefficients; kernels are the only place that loops over
// elements. Counts n may exceed an operand's element count, in which case
// the kernel repeats the operand by remainder (the broadcasting contract).
type Queue interface {
	compute.Stream

	// AssignConstant assigns value to n elements of dst.
	AssignConstant(dst compute.Buffer, dstDims Dimensions, value float64, n int) error

	// Assign copies src into dst with broadcasting repeat semantics.
	Assign(dst compute.Buffer, dstDims Dimensions, src compute.Buffer, srcDims Dimensions, n int) error

	// UnaryAccum computes dst = op(alpha*dst) in place.
	UnaryAccum(dst compute.Buffer, dstDims Dimensions, alpha float64, op Op, n int) error

	// Unary computes dst = op(alpha*x).
	Unary(dst compute.Buffer, dstDims Dimensions, x compute.Buffer, xDims Dimensions, alpha float64, op Op, n int) error

	// BinaryAccumConstant computes dst = alpha*dst op value, or
	// value op alpha*dst when reversed.
	BinaryAccumConstant(dst compute.Buffer, dstDims Dimensions, alpha float64, value float64, op Op, reversed bool, n int) error

	// BinaryConstant computes dst = alpha*x op value, or value op alpha*x
	// when reversed.
	BinaryConstant(dst compute.Buffer, dstDims Dimensions, x compute.Buffer, xDims Dimensions, alpha float64, value float64, op Op, reversed bool, n int) error

	// BinaryAccum computes dst = alpha*dst op beta*y, or
	// beta*y op alpha*dst when reversed.
	BinaryAccum(dst compute.Buffer, dstDims Dimensions, alpha float64, y compute.Buffer, yDims Dimensions, beta float64, op Op, reversed bool, n int) error

	// Binary computes dst = alpha*x op beta*y.
	Binary(dst compute.Buffer, dstDims Dimensions, x compute.Buffer, xDims Dimensions, alpha float64, y compute.Buffer, yDims Dimensions, beta float64, op Op, n int) error

	// Ternary computes dst = op(alpha*x, beta*y, gamma*z).
	Ternary(dst compute.Buffer, dstDims Dimensions,
		x compute.Buffer, xDims Dimensions, alpha float64,
		y compute.Buffer, yDims Dimensions, beta float64,
		z compute.Buffer, zDims Dimensions, gamma float64,
		op Op, n int) error

	// TernaryConstant is the two-tensor variant: a and b fill the slots
	// named by aSlot and bSlot, the remaining slot takes the already
	// scaled constant.
	TernaryConstant(dst compute.Buffer, dstDims Dimensions,
		a compute.Buffer, aDims Dimensions, aAlpha float64, aSlot TernarySlot,
		b compute.Buffer, bDims Dimensions, bAlpha float64, bSlot TernarySlot,
		value float64, op Op, n int) error

	// TernaryConstants is the one-tensor variant: a fills aSlot, v1 and
	// v2 fill the remaining slots in ascending slot order, already
	// scaled.
	TernaryConstants(dst compute.Buffer, dstDims Dimensions,
		a compute.Buffer, aDims Dimensions, aAlpha float64, aSlot TernarySlot,
		v1, v2 float64, op Op, n int) error

	// Gemm computes C = alpha*op(A)*op(B) + beta*C over column-strided
	// row-major matrices.
	Gemm(transA, transB bool, m, n, k int, alpha float64,
		a compute.Buffer, lda int, b compute.Buffer, ldb int,
		beta float64, c compute.Buffer, ldc int) error

	// Gemv computes y = alpha*op(A)*x + beta*y with BLAS increments.
	Gemv(trans bool, m, n int, alpha float64,
		a compute.Buffer, lda int, x compute.Buffer, incX int,
		beta float64, y compute.Buffer, incY int) error

	// BatchNormalize normalizes input with externally supplied
	// statistics.
	BatchNormalize(mode BatchNormMode, desc BatchNormDesc,
		output, input, means, variances, scale, bias compute.Buffer,
		epsilon float64) error

	// BatchNormalizeUpdate computes batch statistics, blends them into
	// the running statistics by aveFactor, and normalizes. The stored
	// batch-variance representation is backend-defined; only the
	// running statistics are portable across backends.
	BatchNormalizeUpdate(mode BatchNormMode, desc BatchNormDesc,
		output, input, batchMeans, batchVariances, runningMeans, runningVariances compute.Buffer,
		aveFactor float64, scale, bias compute.Buffer, epsilon float64) error

	// BatchNormalizeGradients computes input/scale/bias gradients from
	// the exact batch statistics captured by BatchNormalizeUpdate for
	// the same forward call.
	BatchNormalizeGradients(mode BatchNormMode, desc BatchNormDesc,
		inputGradient, scaleGradient, biasGradient, outputGradient compute.Buffer,
		output, input, batchMeans, batchVariances, scale, bias compute.Buffer,
		epsilon float64) error

	// ActivationGradient computes inputGradient from outputGradient and
	// the forward output using the closed-form derivative of act.
	ActivationGradient(inputGradient, outputGradient, output compute.Buffer, act Op, n int) error

	// Softmax normalizes each of batch rows of features elements
	// independently.
	Softmax(output, input compute.Buffer, batch, features int) error
}
