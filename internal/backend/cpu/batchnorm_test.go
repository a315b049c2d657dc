package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

const bnEps = tensor.BatchNormMinEpsilon

func TestBatchNormalizeEltwise(t *testing.T) {
	ctx := testContext()
	input := fromVals(t, ctx, []float64{
		1, 2, 3,
		3, 4, 5,
	}, 2, 3)
	means := fromVals(t, ctx, []float64{2, 3, 4}, 3)
	variances := fromVals(t, ctx, []float64{1, 1, 1}, 3)
	scale := fromVals(t, ctx, []float64{1, 1, 1}, 3)
	bias := fromVals(t, ctx, []float64{0, 0, 0}, 3)
	output := zeros(t, ctx, 2, 3)

	require.NoError(t, tensor.BatchNormalize(ctx, output, input, means, variances, scale, bias, bnEps))
	got := host(t, ctx, output)
	want := []float64{-1, -1, -1, 1, 1, 1}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4)
	}
}

func TestBatchNormalizeSpatialBroadcastsOverTrailingAxes(t *testing.T) {
	ctx := testContext()
	// [1,2,2]: one sample, two channels, two spatial positions per channel.
	input := fromVals(t, ctx, []float64{1, 3, 10, 30}, 1, 2, 2)
	means := fromVals(t, ctx, []float64{2, 20}, 2)
	variances := fromVals(t, ctx, []float64{1, 100}, 2)
	scale := fromVals(t, ctx, []float64{1, 2}, 2)
	bias := fromVals(t, ctx, []float64{0, 5}, 2)
	output := zeros(t, ctx, 1, 2, 2)

	require.NoError(t, tensor.BatchNormalize(ctx, output, input, means, variances, scale, bias, bnEps))
	got := host(t, ctx, output)
	want := []float64{-1, 1, 3, 7}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-3)
	}
}

func TestBatchNormStatisticLengthSelectsByMode(t *testing.T) {
	ctx := testContext()

	run := func(inputShape []int, statLen int) error {
		input := zeros(t, ctx, inputShape...)
		output := zeros(t, ctx, inputShape...)
		stats := make([]*tensor.Tensor, 4)
		for i := range stats {
			stats[i] = zeros(t, ctx, statLen)
		}
		// Keep variances positive so a successful run stays finite.
		require.NoError(t, tensor.Fill(ctx, stats[1], 1))
		return tensor.BatchNormalize(ctx, output, input, stats[0], stats[1], stats[2], stats[3], bnEps)
	}

	// Rank 2 keys statistics by the feature axis.
	require.NoError(t, run([]int{8, 16}, 16))
	var se *compute.ShapeError
	require.ErrorAs(t, run([]int{8, 16}, 8), &se)
	assert.Equal(t, []int{16}, se.Want)
	assert.Equal(t, []int{8}, se.Got)

	// Higher ranks key statistics by the channel axis.
	require.NoError(t, run([]int{8, 3, 4, 4}, 3))
	require.ErrorAs(t, run([]int{8, 3, 4, 4}, 4), &se)
	assert.Equal(t, []int{3}, se.Want)
}

func TestBatchNormalizeRejectsRankOne(t *testing.T) {
	ctx := testContext()
	input := zeros(t, ctx, 8)
	output := zeros(t, ctx, 8)
	s := zeros(t, ctx, 8)

	var se *compute.ShapeError
	require.ErrorAs(t, tensor.BatchNormalize(ctx, output, input, s, s, s, s, bnEps), &se)
}

func TestBatchNormalizeEpsilonFloor(t *testing.T) {
	ctx := testContext()
	input := zeros(t, ctx, 2, 3)
	output := zeros(t, ctx, 2, 3)
	s := zeros(t, ctx, 3)

	var ue *compute.UnsupportedOperandError
	require.ErrorAs(t, tensor.BatchNormalize(ctx, output, input, s, s, s, s, 1e-6), &ue)
}

func TestBatchNormalizeStatisticsShareShape(t *testing.T) {
	ctx := testContext()
	input := zeros(t, ctx, 2, 3)
	output := zeros(t, ctx, 2, 3)
	s3 := zeros(t, ctx, 3)
	s2 := zeros(t, ctx, 2)

	var se *compute.ShapeError
	require.ErrorAs(t, tensor.BatchNormalize(ctx, output, input, s3, s3, s2, s3, bnEps), &se)
}

func TestBatchNormalizeRejectsPaddedViews(t *testing.T) {
	ctx := testContext()

	// The kernels address input, output and statistics contiguously, so a
	// padded view would read padding cells as data.
	input := paddedRows(t, ctx)
	output := zeros(t, ctx, 2, 4)
	s4 := zeros(t, ctx, 4)
	require.NoError(t, tensor.Fill(ctx, s4, 1))

	var se *compute.ShapeError
	require.ErrorAs(t, tensor.BatchNormalize(ctx, output, input, s4, s4, s4, s4, bnEps), &se)
	require.ErrorAs(t, tensor.BatchNormalize(ctx, paddedRows(t, ctx), zeros(t, ctx, 2, 4), s4, s4, s4, s4, bnEps), &se)

	// A column statistic padded between rows is vector-indexable but not
	// dense, and the kernels carry no increment for it.
	base := zeros(t, ctx, 6)
	dims, err := tensor.NewDimensions([]int{3, 1}, []int{2, 1})
	require.NoError(t, err)
	padded, err := base.Reinterpret(dims)
	require.NoError(t, err)
	s31 := zeros(t, ctx, 3, 1)
	require.ErrorAs(t, tensor.BatchNormalize(ctx,
		zeros(t, ctx, 2, 3), zeros(t, ctx, 2, 3), s31, padded, s31, s31, bnEps), &se)
}

func TestBatchNormalizeUpdateAndApply(t *testing.T) {
	ctx := testContext()
	// Column 0: mean 2.5, biased variance 1.25. Column 1: mean 2, variance 0.
	input := fromVals(t, ctx, []float64{
		1, 2,
		2, 2,
		3, 2,
		4, 2,
	}, 4, 2)
	output := zeros(t, ctx, 4, 2)
	batchMeans := zeros(t, ctx, 2)
	batchVariances := zeros(t, ctx, 2)
	runningMeans := fromVals(t, ctx, []float64{10, 10}, 2)
	runningVariances := fromVals(t, ctx, []float64{1, 1}, 2)
	scale := fromVals(t, ctx, []float64{1, 1}, 2)
	bias := fromVals(t, ctx, []float64{0, 0}, 2)

	require.NoError(t, tensor.BatchNormalizeUpdateAndApply(ctx, output, input,
		batchMeans, batchVariances, runningMeans, runningVariances, 0.1, scale, bias, bnEps))

	bm := host(t, ctx, batchMeans)
	assert.InDelta(t, 2.5, bm[0], 1e-12)
	assert.InDelta(t, 2.0, bm[1], 1e-12)

	bv := host(t, ctx, batchVariances)
	assert.InDelta(t, 1.25, bv[0], 1e-12)
	assert.InDelta(t, 0.0, bv[1], 1e-12)

	// running = running*(1-f) + batch*f.
	rm := host(t, ctx, runningMeans)
	assert.InDelta(t, 9.25, rm[0], 1e-12)
	assert.InDelta(t, 9.2, rm[1], 1e-12)
	rv := host(t, ctx, runningVariances)
	assert.InDelta(t, 1.025, rv[0], 1e-12)
	assert.InDelta(t, 0.9, rv[1], 1e-12)

	// aveFactor 0 leaves the running statistics untouched.
	require.NoError(t, tensor.BatchNormalizeUpdateAndApply(ctx, output, input,
		batchMeans, batchVariances, runningMeans, runningVariances, 0, scale, bias, bnEps))
	rm0 := host(t, ctx, runningMeans)
	assert.InDelta(t, 9.25, rm0[0], 1e-12)
	assert.InDelta(t, 9.2, rm0[1], 1e-12)

	// aveFactor 1 replaces them with the batch statistics.
	require.NoError(t, tensor.BatchNormalizeUpdateAndApply(ctx, output, input,
		batchMeans, batchVariances, runningMeans, runningVariances, 1, scale, bias, bnEps))
	assert.InDelta(t, 2.5, host(t, ctx, runningMeans)[0], 1e-12)
	assert.InDelta(t, 1.25, host(t, ctx, runningVariances)[0], 1e-12)

	// The output is normalized with the batch statistics: column 0 has zero
	// mean and unit variance, column 1 collapses to zero.
	out := host(t, ctx, output)
	var sum, sq float64
	for i := 0; i < 4; i++ {
		sum += out[2*i]
		assert.InDelta(t, 0, out[2*i+1], 1e-2)
	}
	assert.InDelta(t, 0, sum, 1e-9)
	for i := 0; i < 4; i++ {
		d := out[2*i] - sum/4
		sq += d * d
	}
	assert.InDelta(t, 1, sq/4, 1e-4)
}

func TestBatchNormalizeGradients(t *testing.T) {
	ctx := testContext()
	input := fromVals(t, ctx, []float64{1, 3}, 2, 1)
	output := zeros(t, ctx, 2, 1)
	batchMeans := zeros(t, ctx, 1)
	batchVariances := zeros(t, ctx, 1)
	runningMeans := zeros(t, ctx, 1)
	runningVariances := zeros(t, ctx, 1)
	scale := fromVals(t, ctx, []float64{1}, 1)
	bias := fromVals(t, ctx, []float64{0}, 1)

	require.NoError(t, tensor.BatchNormalizeUpdateAndApply(ctx, output, input,
		batchMeans, batchVariances, runningMeans, runningVariances, 1, scale, bias, bnEps))
	assert.InDelta(t, 2, host(t, ctx, batchMeans)[0], 1e-12)
	assert.InDelta(t, 1, host(t, ctx, batchVariances)[0], 1e-12)

	outputGradient := fromVals(t, ctx, []float64{1, 2}, 2, 1)
	inputGradient := zeros(t, ctx, 2, 1)
	scaleGradient := zeros(t, ctx, 1)
	biasGradient := zeros(t, ctx, 1)

	require.NoError(t, tensor.BatchNormalizeGradients(ctx,
		inputGradient, scaleGradient, biasGradient, outputGradient,
		output, input, batchMeans, batchVariances, scale, bias, bnEps))

	// dBias is the gradient sum; dScale is the normalized-input weighted sum.
	assert.InDelta(t, 3, host(t, ctx, biasGradient)[0], 1e-12)
	assert.InDelta(t, 1, host(t, ctx, scaleGradient)[0], 1e-4)

	// The input gradient is centered and decorrelated from the normalized
	// input, which for this fixture cancels it exactly.
	din := host(t, ctx, inputGradient)
	assert.InDelta(t, 0, din[0], 1e-4)
	assert.InDelta(t, 0, din[1], 1e-4)
	assert.False(t, math.IsNaN(din[0]))
}

func TestBatchNormalizeGradientsShapeChecks(t *testing.T) {
	ctx := testContext()
	input := zeros(t, ctx, 2, 3)
	output := zeros(t, ctx, 2, 3)
	s := zeros(t, ctx, 3)
	wrongGradient := zeros(t, ctx, 3, 2)
	outputGradient := zeros(t, ctx, 2, 3)

	var se *compute.ShapeError
	require.ErrorAs(t, tensor.BatchNormalizeGradients(ctx,
		wrongGradient, s, s, outputGradient,
		output, input, s, s, s, s, bnEps), &se)
	assert.Equal(t, "input gradient shape mismatch", se.Reason)
}
