package cpu

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// Stream is the execution context of the reference backend. Kernels run
// synchronously on the calling goroutine, so submission order is execution
// order and Sync has nothing to wait for.
type Stream struct {
	device *Device
}

// NewStream creates a stream on the device.
func (d *Device) NewStream() *Stream {
	klog.V(2).Infof("cpu: stream created on %s", d.name)
	return &Stream{device: d}
}

// New builds a driver, a device and a stream in one step. Convenience for
// single-device use.
func New() *Stream {
	return NewDriver().NewDevice("cpu:0").NewStream()
}

// Device returns the device this stream executes on.
func (s *Stream) Device() compute.Device { return s.device }

// Sync is a no-op: the reference backend executes synchronously.
func (s *Stream) Sync() error { return nil }

// Compile-time check that the stream satisfies the backend contract.
var _ tensor.Queue = (*Stream)(nil)

// view walks a buffer under a dimension view by logical broadcast index:
// index i addresses element i % ecount of the view, decomposed into
// coordinates and folded with the strides.
type view struct {
	buf   *Buffer
	shape []int
	str   []int
	m     int
	dense bool
}

func newView(buf compute.Buffer, dims tensor.Dimensions) (view, error) {
	b, ok := buf.(*Buffer)
	if !ok {
		return view{}, errors.Errorf("cpu: foreign buffer %T", buf)
	}
	return view{
		buf:   b,
		shape: dims.Shape(),
		str:   dims.Strides(),
		m:     dims.Ecount(),
		dense: dims.Dense(),
	}, nil
}

func (v view) off(i int) int {
	i %= v.m
	if v.dense {
		return i
	}
	off := 0
	for k := len(v.shape) - 1; k >= 0; k-- {
		off += (i % v.shape[k]) * v.str[k]
		i /= v.shape[k]
	}
	return off
}

func (v view) read(i int) float64     { return v.buf.read(v.off(i)) }
func (v view) write(i int, x float64) { v.buf.write(v.off(i), x) }
