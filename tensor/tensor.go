// Copyright 2025 Substrate ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API of the Substrate tensor core: a
// logical shape/stride view over a flat backend buffer, zero-copy
// reinterpreted views, and the validated operation entry points that
// dispatch to a backend stream.
//
// Every operation takes an explicit *Context carrying the execution stream
// and the default datatype; there is no ambient global state.
//
// Example:
//
//	stream := cpu.New()
//	ctx := tensor.NewContext(stream)
//	a, _ := tensor.FromFloat64s(ctx, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
//	b, _ := tensor.New(ctx, 2, 3)
//	_ = tensor.BinaryOp(ctx, b, 2, a, 1, 1.0, tensor.Add) // b = 2*a + 1
package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// Tensor binds a device, a dimension view and a backend buffer handle.
type Tensor = tensor.Tensor

// Dimensions describes a logical shape/stride view over a flat buffer.
type Dimensions = tensor.Dimensions

// Context carries the execution stream and default datatype for a sequence
// of operations.
type Context = tensor.Context

// Queue is the contract a backend stream implements: the stream itself
// plus one kernel entry point per operation.
type Queue = tensor.Queue

// Op names an elementwise operation.
type Op = tensor.Op

// Operation names.
const (
	Ceil     Op = tensor.Ceil
	Round    Op = tensor.Round
	Floor    Op = tensor.Floor
	Neg      Op = tensor.Neg
	Tanh     Op = tensor.Tanh
	Logistic Op = tensor.Logistic
	Add      Op = tensor.Add
	Sub      Op = tensor.Sub
	Mul      Op = tensor.Mul
	Div      Op = tensor.Div
	Max      Op = tensor.Max
	Min      Op = tensor.Min
	Select   Op = tensor.Select
	ReLU     Op = tensor.ReLU
)

// TernarySlot names the logical position an operand fills in a ternary op.
type TernarySlot = tensor.TernarySlot

// Ternary operand slots.
const (
	SlotX TernarySlot = tensor.SlotX
	SlotY TernarySlot = tensor.SlotY
	SlotZ TernarySlot = tensor.SlotZ
)

// BatchNormMode selects eltwise or spatial statistics mapping.
type BatchNormMode = tensor.BatchNormMode

// Batch-normalization modes.
const (
	BatchNormEltwise BatchNormMode = tensor.BatchNormEltwise
	BatchNormSpatial BatchNormMode = tensor.BatchNormSpatial
)

// BatchNormDesc is the [batch, channels, spatial] coercion of a
// batch-normalization input.
type BatchNormDesc = tensor.BatchNormDesc

// BatchNormMinEpsilon is the smallest epsilon the batch-normalization
// kernels accept.
const BatchNormMinEpsilon = tensor.BatchNormMinEpsilon

// NewContext binds a backend queue with Float64 as the default datatype.
func NewContext(q Queue) *Context { return tensor.NewContext(q) }

// NewDimensions builds Dimensions from a shape, optional strides and
// optional axis names, enforcing the padding-stride invariant.
func NewDimensions(shape []int, strides []int, names ...string) (Dimensions, error) {
	return tensor.NewDimensions(shape, strides, names...)
}

// DimsOf builds dense Dimensions from a shape, panicking on an invalid
// extent.
func DimsOf(shape ...int) Dimensions { return tensor.DimsOf(shape...) }

// Commensurate reports whether two element counts satisfy the broadcasting
// contract.
func Commensurate(n1, n2 int) bool { return tensor.Commensurate(n1, n2) }

// New allocates a dense tensor of the context's default datatype.
func New(ctx *Context, shape ...int) (*Tensor, error) { return tensor.New(ctx, shape...) }

// NewOfType allocates a dense tensor of an explicit datatype.
func NewOfType(ctx *Context, dtype compute.DataType, shape ...int) (*Tensor, error) {
	return tensor.NewOfType(ctx, dtype, shape...)
}

// Clone allocates a dense tensor of the same datatype and shape and copies
// src into it.
func Clone(ctx *Context, src *Tensor) (*Tensor, error) { return tensor.Clone(ctx, src) }

// Wrap binds an existing buffer under the given dimensions.
func Wrap(device compute.Device, dims Dimensions, buffer compute.Buffer) (*Tensor, error) {
	return tensor.Wrap(device, dims, buffer)
}

// Assign implements dest = src for a scalar or tensor source.
func Assign(ctx *Context, dest *Tensor, src any) error { return tensor.Assign(ctx, dest, src) }

// Fill assigns a constant to every element of dest.
func Fill(ctx *Context, dest *Tensor, value float64) error { return tensor.Fill(ctx, dest, value) }

// UnaryOp implements dest = op(alpha*x).
func UnaryOp(ctx *Context, dest *Tensor, alpha float64, x any, op Op) error {
	return tensor.UnaryOp(ctx, dest, alpha, x, op)
}

// BinaryOp implements dest = alpha*x op beta*y.
func BinaryOp(ctx *Context, dest *Tensor, alpha float64, x any, beta float64, y any, op Op) error {
	return tensor.BinaryOp(ctx, dest, alpha, x, beta, y, op)
}

// TernaryOp implements dest = op(alpha*x, beta*y, gamma*z).
func TernaryOp(ctx *Context, dest *Tensor, alpha float64, x any, beta float64, y any, gamma float64, z any, op Op) error {
	return tensor.TernaryOp(ctx, dest, alpha, x, beta, y, gamma, z, op)
}

// Gemm implements C = alpha*op(A)*op(B) + beta*C.
func Gemm(ctx *Context, c *Tensor, transA, transB bool, alpha float64, a, b *Tensor, beta float64) error {
	return tensor.Gemm(ctx, c, transA, transB, alpha, a, b, beta)
}

// Gemv implements y = alpha*op(A)*x + beta*y.
func Gemv(ctx *Context, y *Tensor, trans bool, alpha float64, a, x *Tensor, beta float64) error {
	return tensor.Gemv(ctx, y, trans, alpha, a, x, beta)
}

// BatchNormalize normalizes input with externally supplied statistics.
func BatchNormalize(ctx *Context, output, input, means, variances, scale, bias *Tensor, epsilon float64) error {
	return tensor.BatchNormalize(ctx, output, input, means, variances, scale, bias, epsilon)
}

// BatchNormalizeUpdateAndApply computes batch statistics, blends them into
// the running statistics and normalizes.
func BatchNormalizeUpdateAndApply(ctx *Context, output, input, batchMeans, batchVariances, runningMeans, runningVariances *Tensor, aveFactor float64, scale, bias *Tensor, epsilon float64) error {
	return tensor.BatchNormalizeUpdateAndApply(ctx, output, input,
		batchMeans, batchVariances, runningMeans, runningVariances, aveFactor, scale, bias, epsilon)
}

// BatchNormalizeGradients computes input/scale/bias gradients from the
// batch statistics captured by BatchNormalizeUpdateAndApply.
func BatchNormalizeGradients(ctx *Context, inputGradient, scaleGradient, biasGradient, outputGradient, output, input, batchMeans, batchVariances, scale, bias *Tensor, epsilon float64) error {
	return tensor.BatchNormalizeGradients(ctx, inputGradient, scaleGradient, biasGradient,
		outputGradient, output, input, batchMeans, batchVariances, scale, bias, epsilon)
}

// ActivationGradient computes inputGradient from outputGradient and the
// forward output.
func ActivationGradient(ctx *Context, inputGradient, outputGradient, output *Tensor, act Op) error {
	return tensor.ActivationGradient(ctx, inputGradient, outputGradient, output, act)
}

// Softmax normalizes each batch row of input into output.
func Softmax(ctx *Context, output, input *Tensor) error {
	return tensor.Softmax(ctx, output, input)
}

// FromFloat64s allocates a dense tensor and fills it from a host slice.
func FromFloat64s(ctx *Context, data []float64, shape ...int) (*Tensor, error) {
	return tensor.FromFloat64s(ctx, data, shape...)
}

// CopyFromHost writes a host slice into a dense destination tensor.
func CopyFromHost(ctx *Context, dest *Tensor, data []float64) error {
	return tensor.CopyFromHost(ctx, dest, data)
}

// CopyToHost reads a dense tensor into a fresh host slice.
func CopyToHost(ctx *Context, src *Tensor) ([]float64, error) {
	return tensor.CopyToHost(ctx, src)
}

// FromDense builds a tensor from a gonum matrix.
func FromDense(ctx *Context, m *mat.Dense) (*Tensor, error) {
	return tensor.FromDense(ctx, m)
}
