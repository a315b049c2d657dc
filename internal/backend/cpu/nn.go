package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// ActivationGradient computes the input gradient from the forward output:
// the derivative of each supported activation has a closed form in terms
// of the output alone.
func (s *Stream) ActivationGradient(inputGradient, outputGradient, output compute.Buffer, act tensor.Op, n int) error {
	dIn, iok := inputGradient.(*Buffer)
	dOut, ook := outputGradient.(*Buffer)
	out, tok := output.(*Buffer)
	if !iok || !ook || !tok {
		return errors.New("cpu: activation gradient on foreign buffers")
	}

	switch act {
	case tensor.Logistic:
		for i := 0; i < n; i++ {
			o := out.read(i)
			dIn.write(i, o*(1-o)*dOut.read(i))
		}
	case tensor.Tanh:
		for i := 0; i < n; i++ {
			o := out.read(i)
			dIn.write(i, (1-o*o)*dOut.read(i))
		}
	case tensor.ReLU:
		for i := 0; i < n; i++ {
			if out.read(i) > 0 {
				dIn.write(i, dOut.read(i))
			} else {
				dIn.write(i, 0)
			}
		}
	default:
		return errors.Errorf("cpu: activation gradient for %s", act)
	}
	return nil
}

// Softmax normalizes each batch row independently, subtracting the row
// maximum for numerical stability.
func (s *Stream) Softmax(output, input compute.Buffer, batch, features int) error {
	out, ook := output.(*Buffer)
	in, iok := input.(*Buffer)
	if !ook || !iok {
		return errors.New("cpu: softmax on foreign buffers")
	}

	for row := 0; row < batch; row++ {
		base := row * features

		maxVal := math.Inf(-1)
		for i := 0; i < features; i++ {
			if v := in.read(base + i); v > maxVal {
				maxVal = v
			}
		}

		sum := 0.0
		for i := 0; i < features; i++ {
			e := math.Exp(in.read(base+i) - maxVal)
			out.write(base+i, e)
			sum += e
		}

		for i := 0; i < features; i++ {
			out.write(base+i, out.read(base+i)/sum)
		}
	}
	return nil
}
