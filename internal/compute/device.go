package compute

// Device is an opaque handle to one compute device. Tensors carry a Device
// but never own device memory; allocation and release belong to the
// device's Driver.
type Device interface {
	// Driver returns the backend driver that manages this device.
	// Two devices belong to the same backend iff their drivers are
	// the same value.
	Driver() Driver

	String() string
}

// Buffer is a non-owning handle to a region of device (or host) memory.
// The region's lifetime is managed by the allocating driver; a Buffer only
// references it. Two buffers may reference the identical region (an exact
// alias) or overlapping but non-identical regions (a partial alias); see
// Driver.Alias and Driver.PartialAlias.
type Buffer interface {
	// DType returns the element type the buffer was allocated with.
	DType() DataType

	// Ecount returns the number of addressable elements.
	Ecount() int

	// Device returns the device the buffer lives on.
	Device() Device
}

// Driver is the buffer allocator and raw-transfer facility of one backend.
// It operates on buffer handles, never on tensors.
type Driver interface {
	Name() string

	// Allocate returns a zero-initialized device buffer of ecount
	// elements of dtype on dev.
	Allocate(dev Device, dtype DataType, ecount int) (Buffer, error)

	// SubBuffer returns a zero-copy view of ecount elements of buf
	// starting at the given element offset. The view shares the
	// underlying allocation.
	SubBuffer(buf Buffer, offset, ecount int) (Buffer, error)

	// Alias reports whether a and b reference the identical region.
	Alias(a, b Buffer) bool

	// PartialAlias reports whether a and b share an allocation but are
	// not exact aliases. Writing through partially aliased operands is
	// undefined, so dispatch rejects it.
	PartialAlias(a, b Buffer) bool

	// Copy copies n elements from src to dst on the given stream. Both
	// buffers must carry the same dtype and belong to this driver;
	// dense bulk copies between devices of the same driver are allowed.
	Copy(stream Stream, dst, src Buffer, n int) error

	// Memset assigns value to the first n elements of dst on the given
	// stream, converting value to dst's dtype.
	Memset(stream Stream, dst Buffer, value float64, n int) error

	// CopyToHost reads n elements of src into dst, converting to
	// float64. It synchronizes the stream before dst is touched.
	CopyToHost(stream Stream, dst []float64, src Buffer, n int) error

	// CopyFromHost writes len(src) elements into dst, converting from
	// float64 to dst's dtype.
	CopyFromHost(stream Stream, dst Buffer, src []float64) error
}

// Stream is the execution context every operation dispatches onto.
//
// Operations submitted to one stream are processed in submission order, but
// complete asynchronously with respect to the issuing goroutine unless Sync
// is called. Operations on different streams have no ordering relative to
// each other; callers touching overlapping buffers from two streams are on
// their own. Streams provide no cancellation: a submitted operation runs to
// completion or the whole stream faults.
type Stream interface {
	// Device returns the device this stream executes on.
	Device() Device

	// Sync blocks until every operation submitted so far has completed.
	Sync() error
}
