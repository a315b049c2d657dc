package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/substrate-ml/substrate/internal/compute"
	"github.com/substrate-ml/substrate/internal/tensor"
)

// Batch-normalization kernels. Inputs are addressed through the validated
// [batch, channels, spatial] descriptor: element (n, c, s) lives at
// (n*C + c)*S + s. Eltwise mode is the S == 1 case of the same walk.

type bnBuffers struct {
	output, input *Buffer
}

func bnPair(output, input compute.Buffer) (bnBuffers, error) {
	ob, ook := output.(*Buffer)
	ib, iok := input.(*Buffer)
	if !ook || !iok {
		return bnBuffers{}, errors.New("cpu: batch-norm on foreign buffers")
	}
	return bnBuffers{output: ob, input: ib}, nil
}

func bnStat(buf compute.Buffer) (*Buffer, error) {
	b, ok := buf.(*Buffer)
	if !ok {
		return nil, errors.New("cpu: batch-norm on foreign buffers")
	}
	return b, nil
}

// BatchNormalize normalizes input with the supplied statistics.
func (s *Stream) BatchNormalize(mode tensor.BatchNormMode, desc tensor.BatchNormDesc,
	output, input, means, variances, scale, bias compute.Buffer, epsilon float64) error {
	io, err := bnPair(output, input)
	if err != nil {
		return err
	}
	mb, err := bnStat(means)
	if err != nil {
		return err
	}
	vb, err := bnStat(variances)
	if err != nil {
		return err
	}
	sb, err := bnStat(scale)
	if err != nil {
		return err
	}
	bb, err := bnStat(bias)
	if err != nil {
		return err
	}

	for c := 0; c < desc.Channels; c++ {
		inv := 1 / math.Sqrt(vb.read(c)+epsilon)
		mean, sc, bi := mb.read(c), sb.read(c), bb.read(c)
		bnWalk(desc, c, func(idx int) {
			io.output.write(idx, sc*(io.input.read(idx)-mean)*inv+bi)
		})
	}
	return nil
}

// BatchNormalizeUpdate computes batch statistics, blends them into the
// running statistics and normalizes with the batch statistics. The batch
// variance stored here is the biased (population) variance; that choice is
// internal to this backend.
func (s *Stream) BatchNormalizeUpdate(mode tensor.BatchNormMode, desc tensor.BatchNormDesc,
	output, input, batchMeans, batchVariances, runningMeans, runningVariances compute.Buffer,
	aveFactor float64, scale, bias compute.Buffer, epsilon float64) error {
	io, err := bnPair(output, input)
	if err != nil {
		return err
	}
	stats := make([]*Buffer, 0, 6)
	for _, buf := range []compute.Buffer{batchMeans, batchVariances, runningMeans, runningVariances, scale, bias} {
		b, err := bnStat(buf)
		if err != nil {
			return err
		}
		stats = append(stats, b)
	}
	bMean, bVar, rMean, rVar, sb, bb := stats[0], stats[1], stats[2], stats[3], stats[4], stats[5]

	count := float64(desc.Batch * desc.Spatial)
	for c := 0; c < desc.Channels; c++ {
		sum := 0.0
		bnWalk(desc, c, func(idx int) { sum += io.input.read(idx) })
		mean := sum / count

		sq := 0.0
		bnWalk(desc, c, func(idx int) {
			d := io.input.read(idx) - mean
			sq += d * d
		})
		variance := sq / count

		bMean.write(c, mean)
		bVar.write(c, variance)
		rMean.write(c, rMean.read(c)*(1-aveFactor)+mean*aveFactor)
		rVar.write(c, rVar.read(c)*(1-aveFactor)+variance*aveFactor)

		inv := 1 / math.Sqrt(variance+epsilon)
		sc, bi := sb.read(c), bb.read(c)
		bnWalk(desc, c, func(idx int) {
			io.output.write(idx, sc*(io.input.read(idx)-mean)*inv+bi)
		})
	}
	return nil
}

// BatchNormalizeGradients computes the backward pass from the captured
// batch statistics.
func (s *Stream) BatchNormalizeGradients(mode tensor.BatchNormMode, desc tensor.BatchNormDesc,
	inputGradient, scaleGradient, biasGradient, outputGradient compute.Buffer,
	output, input, batchMeans, batchVariances, scale, bias compute.Buffer,
	epsilon float64) error {
	io, err := bnPair(output, input)
	if err != nil {
		return err
	}
	dIn, err := bnStat(inputGradient)
	if err != nil {
		return err
	}
	dOut, err := bnStat(outputGradient)
	if err != nil {
		return err
	}
	stats := make([]*Buffer, 0, 5)
	for _, buf := range []compute.Buffer{scaleGradient, biasGradient, batchMeans, batchVariances, scale} {
		b, err := bnStat(buf)
		if err != nil {
			return err
		}
		stats = append(stats, b)
	}
	// The closed form below reads the input, not the forward output.
	dScale, dBias, bMean, bVar, sb := stats[0], stats[1], stats[2], stats[3], stats[4]

	count := float64(desc.Batch * desc.Spatial)
	for c := 0; c < desc.Channels; c++ {
		mean := bMean.read(c)
		inv := 1 / math.Sqrt(bVar.read(c)+epsilon)
		sc := sb.read(c)

		sumDy, sumDyXmu := 0.0, 0.0
		bnWalk(desc, c, func(idx int) {
			dy := dOut.read(idx)
			sumDy += dy
			sumDyXmu += dy * (io.input.read(idx) - mean)
		})
		dScale.write(c, sumDyXmu*inv)
		dBias.write(c, sumDy)

		bnWalk(desc, c, func(idx int) {
			dy := dOut.read(idx)
			xmu := io.input.read(idx) - mean
			dIn.write(idx, sc*inv*(dy-sumDy/count-xmu*inv*inv*sumDyXmu/count))
		})
	}
	return nil
}

// bnWalk visits every element of channel c.
func bnWalk(desc tensor.BatchNormDesc, c int, visit func(idx int)) {
	for n := 0; n < desc.Batch; n++ {
		base := (n*desc.Channels + c) * desc.Spatial
		for s := 0; s < desc.Spatial; s++ {
			visit(base + s)
		}
	}
}
