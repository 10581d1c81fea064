package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/munir2200963/edge-labs/internal/tensor"
)

// matmulBlock is the tile edge for the blocked matmul. Wider vector units
// amortize larger tiles.
var matmulBlock = pickMatmulBlock()

func pickMatmulBlock() int {
	if cpuid.CPU.Supports(cpuid.AVX512F) {
		return 128
	}
	if cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.ASIMD) {
		return 64
	}
	return 32
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// Uses a cache-blocked i-k-j loop order so the innermost loop streams
// contiguously over both b and the output row.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	M, K, N := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{M, N}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	bs := matmulBlock

	for i0 := 0; i0 < M; i0 += bs {
		iMax := min(i0+bs, M)
		for k0 := 0; k0 < K; k0 += bs {
			kMax := min(k0+bs, K)
			for j0 := 0; j0 < N; j0 += bs {
				jMax := min(j0+bs, N)
				for i := i0; i < iMax; i++ {
					outRow := outData[i*N : (i+1)*N]
					for k := k0; k < kMax; k++ {
						aik := aData[i*K+k]
						if aik == 0 {
							continue
						}
						bRow := bData[k*N : (k+1)*N]
						for j := j0; j < jMax; j++ {
							outRow[j] += aik * bRow[j]
						}
					}
				}
			}
		}
	}

	return result
}
