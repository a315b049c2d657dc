package tensor

import (
	"errors"
	"testing"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Test helpers

func assertInts(t *testing.T, expected, actual []int, msg string) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
		}
	}
}

func mustDims(t *testing.T, shape, strides []int) Dimensions {
	t.Helper()
	d, err := NewDimensions(shape, strides)
	if err != nil {
		t.Fatalf("NewDimensions(%v, %v): %v", shape, strides, err)
	}
	return d
}

// Dimensions construction

func TestNewDimensionsDefaults(t *testing.T) {
	d := mustDims(t, []int{2, 3, 4}, nil)
	assertInts(t, []int{2, 3, 4}, d.Shape(), "shape")
	assertInts(t, []int{12, 4, 1}, d.Strides(), "strides")
	if d.Ecount() != 24 {
		t.Errorf("Ecount() = %d, want 24", d.Ecount())
	}
	if !d.Dense() {
		t.Error("default strides must be dense")
	}
}

func TestNewDimensionsZeroStridesFill(t *testing.T) {
	// A zero entry takes the minimum legal value for its axis.
	d := mustDims(t, []int{2, 3}, []int{8, 0})
	assertInts(t, []int{8, 1}, d.Strides(), "strides")
	if d.Dense() {
		t.Error("padded axis 0 must not be dense")
	}
}

func TestNewDimensionsBelowMinimumStride(t *testing.T) {
	_, err := NewDimensions([]int{2, 3}, []int{2, 1})
	var se *compute.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if se.Axis != 0 || se.Stride != 2 || se.Min != 3 {
		t.Errorf("ShapeError = axis %d stride %d min %d, want axis 0 stride 2 min 3",
			se.Axis, se.Stride, se.Min)
	}
}

func TestNewDimensionsRejectsBadArguments(t *testing.T) {
	cases := []struct {
		name    string
		shape   []int
		strides []int
		names   []string
	}{
		{"empty shape", nil, nil, nil},
		{"zero extent", []int{2, 0}, nil, nil},
		{"negative extent", []int{-1}, nil, nil},
		{"stride count mismatch", []int{2, 3}, []int{1}, nil},
		{"name count mismatch", []int{2, 3}, nil, []string{"batch"}},
	}
	for _, tt := range cases {
		_, err := NewDimensions(tt.shape, tt.strides, tt.names...)
		var se *compute.ShapeError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected ShapeError, got %v", tt.name, err)
		}
	}
}

func TestDimensionsNames(t *testing.T) {
	d, err := NewDimensions([]int{4, 8}, nil, "batch", "features")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Names(); len(got) != 2 || got[0] != "batch" || got[1] != "features" {
		t.Errorf("Names() = %v", got)
	}
	if mustDims(t, []int{4, 8}, nil).Names() != nil {
		t.Error("unnamed view must return nil names")
	}
}

// Element counts and density

func TestBufferEcountEqualsEcountIffDense(t *testing.T) {
	cases := []struct {
		shape   []int
		strides []int
		buffer  int
	}{
		{[]int{5}, nil, 5},
		{[]int{2, 3, 4}, nil, 24},
		{[]int{2, 3}, []int{8, 1}, 11},  // outer padding: 1 + 1*8 + 2*1
		{[]int{2, 3}, []int{6, 2}, 11},  // inner padding: 1 + 1*6 + 2*2
		{[]int{4, 1}, []int{3, 1}, 10},  // column vector with row padding
	}
	for _, tt := range cases {
		d := mustDims(t, tt.shape, tt.strides)
		if got := d.BufferEcount(); got != tt.buffer {
			t.Errorf("BufferEcount(%s) = %d, want %d", d, got, tt.buffer)
		}
		if (d.BufferEcount() == d.Ecount()) != d.Dense() {
			t.Errorf("%s: BufferEcount == Ecount must coincide with Dense", d)
		}
	}
}

func TestDenseOutermostStrideOnly(t *testing.T) {
	// A tight outermost stride forces every inner stride tight, so density
	// is decided on axis 0 alone.
	if !mustDims(t, []int{2, 3, 4}, []int{12, 4, 1}).Dense() {
		t.Error("tight strides must be dense")
	}
	if mustDims(t, []int{2, 3, 4}, []int{13, 4, 1}).Dense() {
		t.Error("padded axis 0 must not be dense")
	}
}

// 2D and vector coercions

func TestColumnStrideAndNumColumns(t *testing.T) {
	v := mustDims(t, []int{5}, nil)
	if v.ColumnStride() != 5 || v.NumColumns() != 1 {
		t.Errorf("rank-1: ColumnStride %d NumColumns %d", v.ColumnStride(), v.NumColumns())
	}
	m := mustDims(t, []int{4, 3}, nil)
	if m.ColumnStride() != 3 || m.NumColumns() != 3 {
		t.Errorf("dense: ColumnStride %d NumColumns %d", m.ColumnStride(), m.NumColumns())
	}
	p := mustDims(t, []int{4, 3}, []int{5, 1})
	if p.ColumnStride() != 5 {
		t.Errorf("padded: ColumnStride %d, want 5", p.ColumnStride())
	}
}

func TestVectorIndexable(t *testing.T) {
	cases := []struct {
		shape   []int
		strides []int
		want    bool
	}{
		{[]int{6}, nil, true},
		{[]int{2, 3}, nil, true},
		{[]int{4, 3}, []int{5, 1}, false}, // padded, wide rows
		{[]int{4, 1}, []int{3, 1}, true},  // padded, single column
	}
	for _, tt := range cases {
		d := mustDims(t, tt.shape, tt.strides)
		if got := d.VectorIndexable(); got != tt.want {
			t.Errorf("VectorIndexable(%s) = %v, want %v", d, got, tt.want)
		}
	}
}

func TestAs2DCollapsesOuterAxes(t *testing.T) {
	d := mustDims(t, []int{2, 3, 4}, nil).As2D()
	assertInts(t, []int{6, 4}, d.Shape(), "shape")
	assertInts(t, []int{4, 1}, d.Strides(), "strides")
	if d.Rows() != 6 || d.Cols() != 4 {
		t.Errorf("Rows/Cols = %d/%d", d.Rows(), d.Cols())
	}

	v := mustDims(t, []int{5}, nil).As2D()
	assertInts(t, []int{1, 5}, v.Shape(), "rank-1 shape")
}

func TestAs2DStridedVectorKeepsInvariant(t *testing.T) {
	// The derived row stride must cover the strided extent, not just the
	// element count, or the result violates the stride ordering rule.
	v := mustDims(t, []int{5}, []int{3}).As2D()
	assertInts(t, []int{1, 5}, v.Shape(), "shape")
	assertInts(t, []int{15, 3}, v.Strides(), "strides")
	if _, err := NewDimensions(v.Shape(), v.Strides()); err != nil {
		t.Errorf("derived view must revalidate: %v", err)
	}
}

func TestAsBatchKeepsLeadingAxis(t *testing.T) {
	d := mustDims(t, []int{8, 3, 2, 2}, nil).AsBatch()
	assertInts(t, []int{8, 12}, d.Shape(), "shape")
	assertInts(t, []int{12, 1}, d.Strides(), "strides")
}

// Equality

func TestEqualAndShapeEqual(t *testing.T) {
	a := mustDims(t, []int{2, 3}, nil)
	b := mustDims(t, []int{2, 3}, []int{4, 1})
	if !a.ShapeEqual(b) {
		t.Error("same extents must be shape-equal")
	}
	if a.Equal(b) {
		t.Error("different strides must not be equal")
	}
	if !a.Equal(mustDims(t, []int{2, 3}, nil)) {
		t.Error("identical views must be equal")
	}
	if a.ShapeEqual(mustDims(t, []int{3, 2}, nil)) {
		t.Error("different extents must not be shape-equal")
	}
}

// Broadcasting contract

func TestCommensurate(t *testing.T) {
	cases := []struct {
		n1, n2 int
		want   bool
	}{
		{6, 3, true},
		{3, 6, true}, // symmetric
		{6, 4, false},
		{7, 7, true}, // reflexive
		{1, 9, true},
		{0, 5, true}, // zero is commensurate with anything
		{5, 0, true},
	}
	for _, tt := range cases {
		if got := Commensurate(tt.n1, tt.n2); got != tt.want {
			t.Errorf("Commensurate(%d, %d) = %v, want %v", tt.n1, tt.n2, got, tt.want)
		}
	}
}
