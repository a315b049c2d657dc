package cpu

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	blasimpl "gonum.org/v1/gonum/blas/gonum"

	"github.com/substrate-ml/substrate/internal/compute"
)

var impl blasimpl.Implementation

func transposeOf(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// Gemm computes C = alpha*op(A)*op(B) + beta*C through gonum's BLAS
// implementation. Dispatch has already verified float32/float64 and the
// transpose-adjusted shapes.
func (s *Stream) Gemm(transA, transB bool, m, n, k int, alpha float64,
	a compute.Buffer, lda int, b compute.Buffer, ldb int,
	beta float64, c compute.Buffer, ldc int) error {
	ab, aok := a.(*Buffer)
	bb, bok := b.(*Buffer)
	cb, cok := c.(*Buffer)
	if !aok || !bok || !cok {
		return errors.New("cpu: gemm on foreign buffers")
	}
	tA, tB := transposeOf(transA), transposeOf(transB)
	switch cb.DType() {
	case compute.Float64:
		impl.Dgemm(tA, tB, m, n, k, alpha, ab.f64(), lda, bb.f64(), ldb, beta, cb.f64(), ldc)
	case compute.Float32:
		impl.Sgemm(tA, tB, m, n, k, float32(alpha), ab.f32(), lda, bb.f32(), ldb, float32(beta), cb.f32(), ldc)
	default:
		return errors.Errorf("cpu: gemm on dtype %s", cb.DType())
	}
	return nil
}

// Gemv computes y = alpha*op(A)*x + beta*y through gonum's BLAS
// implementation.
func (s *Stream) Gemv(trans bool, m, n int, alpha float64,
	a compute.Buffer, lda int, x compute.Buffer, incX int,
	beta float64, y compute.Buffer, incY int) error {
	ab, aok := a.(*Buffer)
	xb, xok := x.(*Buffer)
	yb, yok := y.(*Buffer)
	if !aok || !xok || !yok {
		return errors.New("cpu: gemv on foreign buffers")
	}
	t := transposeOf(trans)
	switch yb.DType() {
	case compute.Float64:
		impl.Dgemv(t, m, n, alpha, ab.f64(), lda, xb.f64(), incX, beta, yb.f64(), incY)
	case compute.Float32:
		impl.Sgemv(t, m, n, float32(alpha), ab.f32(), lda, xb.f32(), incX, float32(beta), yb.f32(), incY)
	default:
		return errors.Errorf("cpu: gemv on dtype %s", yb.DType())
	}
	return nil
}
