package cpu

import (
	"fmt"

	"github.com/munir2200963/edge-labs/internal/parallel"
	"github.com/munir2200963/edge-labs/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// Im2col rewrites every input patch as a row of a column matrix, turning
// the convolution into one matrix multiplication against the flattened
// kernel. See "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", inShape[1], kShape[1]))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	inData := input.AsFloat32()
	kData := kernel.AsFloat32()
	outData := output.AsFloat32()

	colWidth := cIn * kh * kw
	colHeight := n * hOut * wOut
	colBuf := make([]float32, colHeight*colWidth)
	im2col(colBuf, inData, n, cIn, h, w, kh, kw, hOut, wOut, stride, padding)

	// kernel is already [C_out, C_in*K_h*K_w] in row-major layout.
	// out[n, c, y, x] = kernel_row(c) . col_row(n, y, x)
	// col enumerates (n, y, x) in row-major order.
	parallel.For(colHeight, func(col int) {
		patch := colBuf[col*colWidth : (col+1)*colWidth]
		nIdx := col / (hOut * wOut)
		rem := col % (hOut * wOut)
		for c := 0; c < cOut; c++ {
			kRow := kData[c*colWidth : (c+1)*colWidth]
			var sum float32
			for k, kv := range kRow {
				sum += kv * patch[k]
			}
			outData[((nIdx*cOut+c)*hOut*wOut)+rem] = sum
		}
	}, parallel.DefaultConfig())

	return output
}

// im2col flattens every input patch into one row of colBuf.
// colBuf layout: [N*H_out*W_out, C*K_h*K_w]; out-of-bounds reads are zero
// (zero padding).
func im2col(colBuf, inData []float32, n, c, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := c * kh * kw
	row := 0
	for ni := 0; ni < n; ni++ {
		for oy := 0; oy < hOut; oy++ {
			for ox := 0; ox < wOut; ox++ {
				yStart := oy*stride - padding
				xStart := ox*stride - padding
				buf := colBuf[row*colWidth : (row+1)*colWidth]
				idx := 0
				for ci := 0; ci < c; ci++ {
					for ky := 0; ky < kh; ky++ {
						y := yStart + ky
						for kx := 0; kx < kw; kx++ {
							x := xStart + kx
							if y >= 0 && y < h && x >= 0 && x < w {
								buf[idx] = inData[((ni*c+ci)*h+y)*w+x]
							}
							idx++
						}
					}
				}
				row++
			}
		}
	}
}
