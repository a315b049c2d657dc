// Copyright 2025 Substrate ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend of the Substrate tensor
// core.
//
// # Overview
//
// This package implements a host-memory driver and a synchronous stream:
//   - Pure Go implementation (no CGO)
//   - Gonum BLAS for gemm and gemv
//   - Float16, Float32, Float64, Int32, Int64 and Uint8 buffers
//   - Strided elementwise kernels with a dense fast path
//
// # Basic Usage
//
//	import (
//	    "github.com/substrate-ml/substrate/backend/cpu"
//	    "github.com/substrate-ml/substrate/tensor"
//	)
//
//	func main() {
//	    // Create a CPU stream and bind a context to it.
//	    ctx := tensor.NewContext(cpu.New())
//
//	    a, _ := tensor.FromFloat64s(ctx, []float64{1, 2, 3, 4}, 2, 2)
//	    b, _ := tensor.New(ctx, 2, 2)
//	    _ = tensor.UnaryOp(ctx, b, 1, a, tensor.Tanh)
//	}
//
// # Execution Model
//
// The stream executes kernels synchronously on the calling goroutine, so
// Sync is a no-op and results are visible as soon as an operation
// returns. Distinct streams do not share mutable state.
package cpu
