// Package tensor provides the core tensor model for the Substrate compute
// layer: a logical shape/stride view over a flat backend buffer, plus the
// operation entry points that validate arguments and dispatch to a backend
// stream.
package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Dimensions describes the logical layout of a tensor over a flat buffer.
//
// Axis 0 is the slowest-varying ("outermost") axis; the last axis is the
// fastest-varying ("innermost") one. A stride may be larger than the
// tight-packed minimum (padding), never smaller: for every axis i,
// stride[i] >= stride[i+1]*shape[i+1].
type Dimensions struct {
	shape   []int
	strides []int
	names   []string
}

// NewDimensions builds Dimensions from a shape, optional strides, and
// optional axis names.
//
// strides may be nil (every stride takes its minimum legal value) and
// individual entries may be zero (that axis takes its minimum legal value).
// A stride below the minimum is a contract violation and yields a
// ShapeError naming the axis, the requested stride and the minimum.
func NewDimensions(shape []int, strides []int, names ...string) (Dimensions, error) {
	if len(shape) == 0 {
		return Dimensions{}, &compute.ShapeError{Op: "dimensions", Reason: "rank must be at least 1", Axis: -1}
	}
	for i, extent := range shape {
		if extent <= 0 {
			return Dimensions{}, &compute.ShapeError{
				Op:     "dimensions",
				Reason: fmt.Sprintf("extent %d on axis %d must be positive", extent, i),
				Axis:   -1,
				Got:    shape,
			}
		}
	}
	if strides != nil && len(strides) != len(shape) {
		return Dimensions{}, &compute.ShapeError{
			Op:     "dimensions",
			Reason: fmt.Sprintf("%d strides for %d axes", len(strides), len(shape)),
			Axis:   -1,
		}
	}
	if len(names) != 0 && len(names) != len(shape) {
		return Dimensions{}, &compute.ShapeError{
			Op:     "dimensions",
			Reason: fmt.Sprintf("%d names for %d axes", len(names), len(shape)),
			Axis:   -1,
		}
	}

	filled := make([]int, len(shape))
	min := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s := 0
		if strides != nil {
			s = strides[i]
		}
		switch {
		case s == 0:
			filled[i] = min
		case s < min:
			return Dimensions{}, &compute.ShapeError{Op: "dimensions", Axis: i, Stride: s, Min: min}
		default:
			filled[i] = s
		}
		min = filled[i] * shape[i]
	}

	d := Dimensions{
		shape:   append([]int(nil), shape...),
		strides: filled,
	}
	if len(names) != 0 {
		d.names = append([]string(nil), names...)
	}
	return d, nil
}

// DimsOf builds dense Dimensions from a shape, panicking on an invalid
// extent. Convenience for literals.
func DimsOf(shape ...int) Dimensions {
	d, err := NewDimensions(shape, nil)
	if err != nil {
		panic(err)
	}
	return d
}

// Rank returns the number of axes.
func (d Dimensions) Rank() int { return len(d.shape) }

// Shape returns the extents, outermost first. The slice is shared; treat it
// as read-only.
func (d Dimensions) Shape() []int { return d.shape }

// Strides returns the element strides, outermost first. The slice is
// shared; treat it as read-only.
func (d Dimensions) Strides() []int { return d.strides }

// Names returns the axis names, or nil when the view is unnamed.
func (d Dimensions) Names() []string { return d.names }

// Ecount returns the number of logical elements (product of the extents).
func (d Dimensions) Ecount() int {
	n := 1
	for _, extent := range d.shape {
		n *= extent
	}
	return n
}

// BufferEcount returns the minimum buffer element count able to address
// every element of the view, accounting for padding on every axis. It
// equals Ecount iff the view is dense.
func (d Dimensions) BufferEcount() int {
	n := 1
	for i, extent := range d.shape {
		n += (extent - 1) * d.strides[i]
	}
	return n
}

// Dense reports whether the view has no padding. A tight outermost stride
// forces every inner stride tight as well, so only axis 0 is examined.
func (d Dimensions) Dense() bool {
	inner := 1
	for _, extent := range d.shape[1:] {
		inner *= extent
	}
	return d.strides[0] == inner
}

// Outermost returns the extent of axis 0.
func (d Dimensions) Outermost() int { return d.shape[0] }

// Innermost returns the extent of the fastest-varying axis.
func (d Dimensions) Innermost() int { return d.shape[len(d.shape)-1] }

// ColumnStride returns the stride that steps between consecutive rows of
// the 2D view: the second-to-innermost stride, or the axis-0 extent for a
// rank-1 view.
func (d Dimensions) ColumnStride() int {
	if len(d.shape) == 1 {
		return d.shape[0]
	}
	return d.strides[len(d.strides)-2]
}

// NumColumns returns the second shape extent, or 1 for a rank-1 view.
func (d Dimensions) NumColumns() int {
	if len(d.shape) == 1 {
		return 1
	}
	return d.shape[1]
}

// VectorIndexable reports whether the view can be walked with a single
// BLAS-style increment: it is dense, or its column width is 1.
func (d Dimensions) VectorIndexable() bool {
	return d.Dense() || d.NumColumns() == 1
}

// As2D collapses the outer axes into rows and keeps the innermost axis as
// columns. The row stride is the column stride, so the result is exact for
// any layout whose padding sits on the outermost axis.
func (d Dimensions) As2D() Dimensions {
	if len(d.shape) == 2 {
		return d
	}
	if len(d.shape) == 1 {
		// The single row spans the whole strided vector, so the row
		// stride is its addressed extent, keeping the stride ordering
		// invariant intact for strided vectors.
		return Dimensions{
			shape:   []int{1, d.shape[0]},
			strides: []int{d.shape[0] * d.strides[0], d.strides[0]},
		}
	}
	rows := 1
	for _, extent := range d.shape[:len(d.shape)-1] {
		rows *= extent
	}
	last := len(d.shape) - 1
	return Dimensions{
		shape:   []int{rows, d.shape[last]},
		strides: []int{d.strides[last-1], d.strides[last]},
	}
}

// Rows returns the row count of the 2D view.
func (d Dimensions) Rows() int { return d.As2D().shape[0] }

// Cols returns the column count of the 2D view.
func (d Dimensions) Cols() int { return d.As2D().shape[1] }

// AsBatch keeps axis 0 as the batch axis and collapses the rest.
func (d Dimensions) AsBatch() Dimensions {
	if len(d.shape) == 2 {
		return d
	}
	rest := 1
	for _, extent := range d.shape[1:] {
		rest *= extent
	}
	inner := 1
	if len(d.shape) > 1 {
		inner = d.strides[len(d.strides)-1]
	}
	return Dimensions{
		shape:   []int{d.shape[0], rest},
		strides: []int{d.strides[0], inner},
	}
}

// Equal reports whether two views have the same shape and strides.
func (d Dimensions) Equal(o Dimensions) bool {
	if len(d.shape) != len(o.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != o.shape[i] || d.strides[i] != o.strides[i] {
			return false
		}
	}
	return true
}

// ShapeEqual reports whether two views have the same extents, ignoring
// strides.
func (d Dimensions) ShapeEqual(o Dimensions) bool {
	if len(d.shape) != len(o.shape) {
		return false
	}
	for i := range d.shape {
		if d.shape[i] != o.shape[i] {
			return false
		}
	}
	return true
}

func (d Dimensions) String() string {
	if d.Dense() {
		return fmt.Sprintf("%v", d.shape)
	}
	return fmt.Sprintf("%v/%v", d.shape, d.strides)
}
