package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/substrate-ml/substrate/internal/tensor"
)

// Shared fixtures for the backend tests. Every test drives the public
// dispatch layer against a fresh stream, so dispatch validation and kernel
// behavior are exercised together.

func testContext() *tensor.Context {
	return tensor.NewContext(New())
}

func fromVals(t *testing.T, ctx *tensor.Context, data []float64, shape ...int) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromFloat64s(ctx, data, shape...)
	require.NoError(t, err)
	return tt
}

func zeros(t *testing.T, ctx *tensor.Context, shape ...int) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.New(ctx, shape...)
	require.NoError(t, err)
	return tt
}

func host(t *testing.T, ctx *tensor.Context, x *tensor.Tensor) []float64 {
	t.Helper()
	out, err := tensor.CopyToHost(ctx, x)
	require.NoError(t, err)
	return out
}
