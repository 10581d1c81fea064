package cpu

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Conv2DInputBackward computes the gradient w.r.t. the convolution input.
//
// Each output position (n, co, oy, ox) contributed
// grad[n,co,oy,ox] * kernel[co,ci,ky,kx] to input[n,ci,oy*stride-pad+ky,
// ox*stride-pad+kx]; this scatters those contributions back.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape, kShape, gShape := input.Shape(), kernel.Shape(), outputGrad.Shape()

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	hOut, wOut := gShape[2], gShape[3]

	inputGrad, err := tensor.NewRaw(inShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d input backward: %v", err))
	}

	gData := outputGrad.AsFloat32()
	kData := kernel.AsFloat32()
	igData := inputGrad.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for co := 0; co < cOut; co++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					g := gData[((ni*cOut+co)*hOut+oy)*wOut+ox]
					if g == 0 {
						continue
					}
					yStart := oy*stride - padding
					xStart := ox*stride - padding
					for ci := 0; ci < cIn; ci++ {
						for ky := 0; ky < kh; ky++ {
							y := yStart + ky
							if y < 0 || y >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								x := xStart + kx
								if x < 0 || x >= w {
									continue
								}
								igData[((ni*cIn+ci)*h+y)*w+x] += g * kData[((co*cIn+ci)*kh+ky)*kw+kx]
							}
						}
					}
				}
			}
		}
	}

	return inputGrad
}

// Conv2DKernelBackward computes the gradient w.r.t. the convolution kernel.
//
// kernelGrad[co,ci,ky,kx] = sum over (n, oy, ox) of
// grad[n,co,oy,ox] * input[n,ci,oy*stride-pad+ky,ox*stride-pad+kx].
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape, kShape, gShape := input.Shape(), kernel.Shape(), outputGrad.Shape()

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	hOut, wOut := gShape[2], gShape[3]

	kernelGrad, err := tensor.NewRaw(kShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d kernel backward: %v", err))
	}

	inData := input.AsFloat32()
	gData := outputGrad.AsFloat32()
	kgData := kernelGrad.AsFloat32()

	for ni := 0; ni < n; ni++ {
		for co := 0; co < cOut; co++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					g := gData[((ni*cOut+co)*hOut+oy)*wOut+ox]
					if g == 0 {
						continue
					}
					yStart := oy*stride - padding
					xStart := ox*stride - padding
					for ci := 0; ci < cIn; ci++ {
						for ky := 0; ky < kh; ky++ {
							y := yStart + ky
							if y < 0 || y >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								x := xStart + kx
								if x < 0 || x >= w {
									continue
								}
								kgData[((co*cIn+ci)*kh+ky)*kw+kx] += g * inData[((ni*cIn+ci)*h+y)*w+x]
							}
						}
					}
				}
			}
		}
	}

	return kernelGrad
}
