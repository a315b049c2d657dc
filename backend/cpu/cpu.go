// Copyright 2025 Substrate ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/substrate-ml/substrate/internal/backend/cpu"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// Stream is the CPU execution queue. Kernels run synchronously on the
// calling goroutine, so Sync is a no-op.
type Stream = internalcpu.Stream

// Driver is the host-memory allocator of the CPU backend.
type Driver = internalcpu.Driver

// Device represents one logical CPU device.
type Device = internalcpu.Device

// Compile-time check that Stream implements tensor.Queue.
var _ tensor.Queue = (*Stream)(nil)

// New creates a driver, a default device and a stream on it.
//
// Example:
//
//	import (
//	    "github.com/substrate-ml/substrate/backend/cpu"
//	    "github.com/substrate-ml/substrate/tensor"
//	)
//
//	func main() {
//	    ctx := tensor.NewContext(cpu.New())
//	    x, _ := tensor.New(ctx, 2, 3)
//	    _ = tensor.Fill(ctx, x, 1)
//	}
func New() *Stream {
	return internalcpu.New()
}

// NewDriver creates a standalone CPU driver for callers that manage
// devices and streams themselves.
func NewDriver() *Driver {
	return internalcpu.NewDriver()
}
