// Copyright 2025 Substrate ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compute exposes the backend-facing handles of the Substrate
// tensor core: devices, drivers, streams and buffers, the runtime datatype
// enum, and the structured errors every operation entry point can raise.
//
// A backend implements Driver (allocation, sub-buffer views, alias and
// overlap predicates, raw copies) and Stream (ordered asynchronous
// execution); tensors reference buffers through these handles and never
// own device memory.
package compute

import "github.com/substrate-ml/substrate/internal/compute"

// DataType represents runtime element-type information for buffers.
type DataType = compute.DataType

// Supported element types.
const (
	Float16 DataType = compute.Float16
	Float32 DataType = compute.Float32
	Float64 DataType = compute.Float64
	Int32   DataType = compute.Int32
	Int64   DataType = compute.Int64
	Uint8   DataType = compute.Uint8
)

// Device is an opaque handle to one compute device.
type Device = compute.Device

// Driver is the buffer allocator and raw-transfer facility of one backend.
type Driver = compute.Driver

// Buffer is a non-owning handle to a region of device memory.
type Buffer = compute.Buffer

// Stream is the execution context operations dispatch onto. Within one
// stream, calls execute in submission order; across streams there is no
// ordering.
type Stream = compute.Stream

// Structured error kinds. Every validation failure is raised before any
// backend call is issued; match with errors.As.
type (
	ShapeError              = compute.ShapeError
	DatatypeMismatchError   = compute.DatatypeMismatchError
	DeviceMismatchError     = compute.DeviceMismatchError
	DriverMismatchError     = compute.DriverMismatchError
	IncommensurateError     = compute.IncommensurateError
	AliasError              = compute.AliasError
	UnsupportedOperandError = compute.UnsupportedOperandError
	PrecisionError          = compute.PrecisionError
	MissingContextError     = compute.MissingContextError
)
