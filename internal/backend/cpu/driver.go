// Package cpu implements the reference backend: a host-memory driver and a
// synchronous stream whose kernels execute the operation contracts the
// dispatch layer validates.
package cpu

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/x448/float16"
	"k8s.io/klog/v2"

	"github.com/substrate-ml/substrate/internal/compute"
)

// allocation is one host allocation. Buffers are views into it; the driver
// owns the memory, buffers never do.
type allocation struct {
	data  []byte
	dtype compute.DataType
}

// Buffer is a non-owning view of ecount elements starting at an element
// offset inside an allocation.
type Buffer struct {
	alloc  *allocation
	device compute.Device
	offset int
	ecount int
}

// DType returns the element type of the underlying allocation.
func (b *Buffer) DType() compute.DataType { return b.alloc.dtype }

// Ecount returns the number of addressable elements.
func (b *Buffer) Ecount() int { return b.ecount }

// Device returns the device the buffer was allocated on.
func (b *Buffer) Device() compute.Device { return b.device }

func (b *Buffer) f16() []uint16 {
	return typed[uint16](b.alloc)[b.offset : b.offset+b.ecount]
}

func (b *Buffer) f32() []float32 {
	return typed[float32](b.alloc)[b.offset : b.offset+b.ecount]
}

func (b *Buffer) f64() []float64 {
	return typed[float64](b.alloc)[b.offset : b.offset+b.ecount]
}

func (b *Buffer) i32() []int32 {
	return typed[int32](b.alloc)[b.offset : b.offset+b.ecount]
}

func (b *Buffer) i64() []int64 {
	return typed[int64](b.alloc)[b.offset : b.offset+b.ecount]
}

func (b *Buffer) u8() []uint8 {
	return b.alloc.data[b.offset : b.offset+b.ecount]
}

func typed[T any](a *allocation) []T {
	var zero T
	n := len(a.data) / int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(&a.data[0])), n)
}

// read returns element i as float64, converting from the stored dtype.
func (b *Buffer) read(i int) float64 {
	switch b.alloc.dtype {
	case compute.Float16:
		return float64(float16.Frombits(b.f16()[i]).Float32())
	case compute.Float32:
		return float64(b.f32()[i])
	case compute.Float64:
		return b.f64()[i]
	case compute.Int32:
		return float64(b.i32()[i])
	case compute.Int64:
		return float64(b.i64()[i])
	case compute.Uint8:
		return float64(b.u8()[i])
	default:
		panic("unknown data type")
	}
}

// write stores v into element i, converting to the stored dtype.
func (b *Buffer) write(i int, v float64) {
	switch b.alloc.dtype {
	case compute.Float16:
		b.f16()[i] = float16.Fromfloat32(float32(v)).Bits()
	case compute.Float32:
		b.f32()[i] = float32(v)
	case compute.Float64:
		b.f64()[i] = v
	case compute.Int32:
		b.i32()[i] = int32(v)
	case compute.Int64:
		b.i64()[i] = int64(v)
	case compute.Uint8:
		b.u8()[i] = uint8(math.Max(0, math.Min(255, v)))
	default:
		panic("unknown data type")
	}
}

// Driver manages host allocations. Driver identity is pointer identity:
// buffers allocated by different Driver values belong to different
// backends.
type Driver struct {
	name string
}

// Device is a logical host device of one driver. Multiple devices of one
// driver model the relaxed bulk-copy rule; all of them address the same
// host memory here.
type Device struct {
	driver *Driver
	name   string
}

// Driver returns the owning driver.
func (d *Device) Driver() compute.Driver { return d.driver }

func (d *Device) String() string { return d.name }

// NewDriver creates a host driver.
func NewDriver() *Driver {
	klog.V(1).Info("cpu: driver initialized")
	return &Driver{name: "cpu"}
}

// NewDevice creates a named device of this driver.
func (d *Driver) NewDevice(name string) *Device {
	return &Device{driver: d, name: name}
}

// Name returns the backend name.
func (d *Driver) Name() string { return d.name }

// Allocate returns a zero-initialized buffer of ecount elements.
func (d *Driver) Allocate(dev compute.Device, dtype compute.DataType, ecount int) (compute.Buffer, error) {
	if ecount < 0 {
		return nil, errors.Errorf("cpu: cannot allocate %d elements", ecount)
	}
	cdev, ok := dev.(*Device)
	if !ok || cdev.driver != d {
		return nil, errors.Errorf("cpu: device %v does not belong to this driver", dev)
	}
	alloc := &allocation{
		data:  make([]byte, ecount*dtype.Size()),
		dtype: dtype,
	}
	return &Buffer{alloc: alloc, device: dev, ecount: ecount}, nil
}

// SubBuffer returns a view of ecount elements of buf starting at offset,
// sharing the allocation.
func (d *Driver) SubBuffer(buf compute.Buffer, offset, ecount int) (compute.Buffer, error) {
	b, err := d.own(buf)
	if err != nil {
		return nil, err
	}
	if offset < 0 || ecount < 0 || offset+ecount > b.ecount {
		return nil, errors.Errorf("cpu: sub-buffer [%d:%d) outside buffer of %d elements",
			offset, offset+ecount, b.ecount)
	}
	return &Buffer{
		alloc:  b.alloc,
		device: b.device,
		offset: b.offset + offset,
		ecount: ecount,
	}, nil
}

// Alias reports whether a and b are the identical region.
func (d *Driver) Alias(a, b compute.Buffer) bool {
	ab, aok := a.(*Buffer)
	bb, bok := b.(*Buffer)
	if !aok || !bok {
		return false
	}
	return ab.alloc == bb.alloc && ab.offset == bb.offset && ab.ecount == bb.ecount
}

// PartialAlias reports whether a and b share an allocation with
// overlapping but non-identical ranges.
func (d *Driver) PartialAlias(a, b compute.Buffer) bool {
	ab, aok := a.(*Buffer)
	bb, bok := b.(*Buffer)
	if !aok || !bok || ab.alloc != bb.alloc {
		return false
	}
	if d.Alias(a, b) {
		return false
	}
	return ab.offset < bb.offset+bb.ecount && bb.offset < ab.offset+ab.ecount
}

// Copy copies n elements from src to dst. Both must carry the same dtype;
// devices may differ as long as they belong to this driver.
func (d *Driver) Copy(stream compute.Stream, dst, src compute.Buffer, n int) error {
	db, err := d.own(dst)
	if err != nil {
		return err
	}
	sb, err := d.own(src)
	if err != nil {
		return err
	}
	if db.alloc.dtype != sb.alloc.dtype {
		return errors.Errorf("cpu: copy across dtypes %s and %s", db.alloc.dtype, sb.alloc.dtype)
	}
	if n > db.ecount || n > sb.ecount {
		return errors.Errorf("cpu: copy of %d elements exceeds buffers (%d, %d)", n, db.ecount, sb.ecount)
	}
	esize := db.alloc.dtype.Size()
	copy(db.alloc.data[db.offset*esize:(db.offset+n)*esize],
		sb.alloc.data[sb.offset*esize:(sb.offset+n)*esize])
	return nil
}

// Memset assigns value to the first n elements of dst.
func (d *Driver) Memset(stream compute.Stream, dst compute.Buffer, value float64, n int) error {
	db, err := d.own(dst)
	if err != nil {
		return err
	}
	if n > db.ecount {
		return errors.Errorf("cpu: memset of %d elements exceeds buffer of %d", n, db.ecount)
	}
	for i := 0; i < n; i++ {
		db.write(i, value)
	}
	return nil
}

// CopyToHost reads n elements of src into dst as float64, synchronizing
// the stream first.
func (d *Driver) CopyToHost(stream compute.Stream, dst []float64, src compute.Buffer, n int) error {
	sb, err := d.own(src)
	if err != nil {
		return err
	}
	if n > sb.ecount || n > len(dst) {
		return errors.Errorf("cpu: host read of %d elements exceeds buffer of %d", n, sb.ecount)
	}
	if err := stream.Sync(); err != nil {
		return errors.Wrap(err, "cpu: sync before host read")
	}
	for i := 0; i < n; i++ {
		dst[i] = sb.read(i)
	}
	return nil
}

// CopyFromHost writes len(src) elements into dst, converting from float64.
func (d *Driver) CopyFromHost(stream compute.Stream, dst compute.Buffer, src []float64) error {
	db, err := d.own(dst)
	if err != nil {
		return err
	}
	if len(src) > db.ecount {
		return errors.Errorf("cpu: host write of %d elements exceeds buffer of %d", len(src), db.ecount)
	}
	for i, v := range src {
		db.write(i, v)
	}
	return nil
}

func (d *Driver) own(buf compute.Buffer) (*Buffer, error) {
	b, ok := buf.(*Buffer)
	if !ok {
		return nil, errors.Errorf("cpu: foreign buffer %T", buf)
	}
	if b.device.Driver() != compute.Driver(d) {
		return nil, errors.New("cpu: buffer belongs to another driver")
	}
	return b, nil
}
