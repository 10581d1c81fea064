package cpu

import (
	"fmt"
	"math"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// MaxPool2D performs 2D max pooling over non-overlapping (or overlapping,
// when stride < kernelSize) windows.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, (H-kernelSize)/stride+1, (W-kernelSize)/stride+1]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inShape := input.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}

	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, c, hOut, wOut}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: %v", err))
	}

	inData := input.AsFloat32()
	outData := output.AsFloat32()

	outIdx := 0
	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					maxVal := float32(math.Inf(-1))
					for ky := 0; ky < kernelSize; ky++ {
						y := oy*stride + ky
						for kx := 0; kx < kernelSize; kx++ {
							x := ox*stride + kx
							if v := inData[((ni*c+ci)*h+y)*w+x]; v > maxVal {
								maxVal = v
							}
						}
					}
					outData[outIdx] = maxVal
					outIdx++
				}
			}
		}
	}

	return output
}

// MaxPool2DBackward routes the output gradient to the input positions that
// held the window maximum; all other positions stay zero. maxIndices holds
// the flat input index of the maximum for each output position, recorded
// during the forward pass.
func (cpu *CPUBackend) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(input.Shape(), tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxpool2d backward: %v", err))
	}

	gData := outputGrad.AsFloat32()
	igData := inputGrad.AsFloat32()
	for i, src := range maxIndices {
		igData[src] += gData[i]
	}

	return inputGrad
}

// MaxIndices finds which input position held the maximum for each output
// position, for gradient routing. Shared between the forward op recording
// and tests.
func MaxIndices(input, output *tensor.RawTensor, kernelSize, stride int) []int {
	inShape, outShape := input.Shape(), output.Shape()
	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut, wOut := outShape[2], outShape[3]

	inData := input.AsFloat32()
	indices := make([]int, n*c*hOut*wOut)

	outIdx := 0
	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					maxVal := float32(math.Inf(-1))
					maxPos := 0
					for ky := 0; ky < kernelSize; ky++ {
						y := oy*stride + ky
						for kx := 0; kx < kernelSize; kx++ {
							x := ox*stride + kx
							idx := ((ni*c+ci)*h+y)*w + x
							if v := inData[idx]; v > maxVal {
								maxVal = v
								maxPos = idx
							}
						}
					}
					indices[outIdx] = maxPos
					outIdx++
				}
			}
		}
	}

	return indices
}
