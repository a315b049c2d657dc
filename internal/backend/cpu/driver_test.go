package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

func TestAliasPredicates(t *testing.T) {
	ctx := testContext()
	drv := ctx.Device().Driver()
	base := zeros(t, ctx, 8)

	whole, err := base.Slice(0, 8)
	require.NoError(t, err)
	left, err := base.Slice(0, 4)
	require.NoError(t, err)
	right, err := base.Slice(4, 4)
	require.NoError(t, err)
	mid, err := base.Slice(2, 4)
	require.NoError(t, err)

	assert.True(t, drv.Alias(base.Buffer(), whole.Buffer()))
	assert.False(t, drv.PartialAlias(base.Buffer(), whole.Buffer()))

	assert.False(t, drv.Alias(left.Buffer(), right.Buffer()))
	assert.False(t, drv.PartialAlias(left.Buffer(), right.Buffer()), "disjoint ranges do not overlap")

	assert.False(t, drv.Alias(left.Buffer(), mid.Buffer()))
	assert.True(t, drv.PartialAlias(left.Buffer(), mid.Buffer()))
	assert.True(t, drv.PartialAlias(mid.Buffer(), right.Buffer()))

	other := zeros(t, ctx, 8)
	assert.False(t, drv.Alias(base.Buffer(), other.Buffer()))
	assert.False(t, drv.PartialAlias(base.Buffer(), other.Buffer()), "separate allocations never overlap")
}

func TestSubBufferBounds(t *testing.T) {
	ctx := testContext()
	drv := ctx.Device().Driver()
	base := zeros(t, ctx, 8)

	_, err := drv.SubBuffer(base.Buffer(), 6, 4)
	require.Error(t, err)
	_, err = drv.SubBuffer(base.Buffer(), -1, 2)
	require.Error(t, err)
}

func TestSliceSharesAllocation(t *testing.T) {
	ctx := testContext()
	base := fromVals(t, ctx, []float64{1, 2, 3, 4, 5, 6}, 6)
	tail, err := base.Slice(3, 3)
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 5, 6}, host(t, ctx, tail))

	require.NoError(t, tensor.Fill(ctx, tail, 9))
	assert.Equal(t, []float64{1, 2, 3, 9, 9, 9}, host(t, ctx, base))
}

func TestFloat16RoundTrip(t *testing.T) {
	ctx := testContext()
	x, err := tensor.NewOfType(ctx, compute.Float16, 4)
	require.NoError(t, err)

	// Exactly representable in half precision.
	vals := []float64{1.5, -2.25, 0, 3}
	require.NoError(t, tensor.CopyFromHost(ctx, x, vals))
	assert.Equal(t, vals, host(t, ctx, x))
}

func TestFloat16Arithmetic(t *testing.T) {
	ctx := testContext().WithDType(compute.Float16)
	x := fromVals(t, ctx, []float64{1, 2}, 2)
	d := zeros(t, ctx, 2)

	require.NoError(t, tensor.BinaryOp(ctx, d, 1, x, 1, 0.5, tensor.Add))
	assert.Equal(t, []float64{1.5, 2.5}, host(t, ctx, d))
}

func TestUint8WritesClamp(t *testing.T) {
	ctx := testContext().WithDType(compute.Uint8)
	d := zeros(t, ctx, 3)

	require.NoError(t, tensor.Fill(ctx, d, 300))
	assert.Equal(t, []float64{255, 255, 255}, host(t, ctx, d))
	require.NoError(t, tensor.Fill(ctx, d, -5))
	assert.Equal(t, []float64{0, 0, 0}, host(t, ctx, d))
}

func TestBulkCopyCrossesDevicesOfOneDriver(t *testing.T) {
	drv := NewDriver()
	ctx := tensor.NewContext(drv.NewDevice("cpu:0").NewStream())
	src := fromVals(t, ctx, []float64{1, 2, 3, 4}, 2, 2)

	other := drv.NewDevice("cpu:1")
	buf, err := drv.Allocate(other, compute.Float64, 4)
	require.NoError(t, err)
	dims, err := tensor.NewDimensions([]int{2, 2}, nil)
	require.NoError(t, err)
	dst, err := tensor.Wrap(other, dims, buf)
	require.NoError(t, err)

	// Dense same-type bulk assignment only needs driver equality.
	require.NoError(t, tensor.Assign(ctx, dst, src))
	out := make([]float64, 4)
	require.NoError(t, drv.CopyToHost(ctx.Queue(), out, dst.Buffer(), 4))
	assert.Equal(t, []float64{1, 2, 3, 4}, out)

	// Compute operations keep the strict device rule.
	var de *compute.DeviceMismatchError
	require.ErrorAs(t, tensor.BinaryOp(ctx, dst, 1, src, 1, src, tensor.Add), &de)
}

func TestBulkCopyRejectsForeignDriver(t *testing.T) {
	ctx := tensor.NewContext(New())
	src := fromVals(t, ctx, []float64{1, 2}, 2)

	foreign := NewDriver()
	dev := foreign.NewDevice("cpu:0")
	buf, err := foreign.Allocate(dev, compute.Float64, 2)
	require.NoError(t, err)
	dims, err := tensor.NewDimensions([]int{2}, nil)
	require.NoError(t, err)
	dst, err := tensor.Wrap(dev, dims, buf)
	require.NoError(t, err)

	var de *compute.DriverMismatchError
	require.ErrorAs(t, tensor.Assign(ctx, dst, src), &de)
}

func TestWrapRequiresAddressableBuffer(t *testing.T) {
	ctx := testContext()
	base := zeros(t, ctx, 6)

	// A [2,3] view with outer stride 6 needs 9 addressable elements.
	dims, err := tensor.NewDimensions([]int{2, 3}, []int{6, 1})
	require.NoError(t, err)
	_, err = base.Reinterpret(dims)
	var se *compute.ShapeError
	require.ErrorAs(t, err, &se)
}
