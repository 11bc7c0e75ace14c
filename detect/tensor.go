package detect

import (
	"encoding/binary"
	"fmt"

	"github.com/x448/float16"
	"gocv.io/x/gocv"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// tensorFloats returns the output tensor contents as float32 values.
// Models exported with half precision heads produce fp16 buffers which are
// converted through the lookup table, everything else must be fp32.
func tensorFloats(out gocv.Mat) ([]float32, error) {

	if out.Type() == gocv.MatTypeCV32F {
		vals, err := out.DataPtrFloat32()
		if err != nil {
			return nil, fmt.Errorf("failed to read output tensor: %w", err)
		}
		return vals, nil
	}

	raw := out.ToBytes()

	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("unsupported output tensor type %d", out.Type())
	}

	return halfToFloat32(raw), nil
}

// halfToFloat32 converts a little endian fp16 buffer to float32 values
func halfToFloat32(raw []byte) []float32 {

	vals := make([]float32, len(raw)/2)

	for i := range vals {
		bits := binary.LittleEndian.Uint16(raw[i*2:])
		vals[i] = f16LookupTable[bits]
	}

	return vals
}

// quickSortIndiceInverse sorts the probs vector in descending order and
// synchronously updates the indices vector to track the reordering of
// elements
func quickSortIndiceInverse(input []float32, left int, right int, indices []int) int {

	var key float32
	var keyIndex int

	low := left
	high := right

	if left < right {
		keyIndex = indices[left]
		key = input[left]

		for low < high {
			for low < high && input[high] <= key {
				high--
			}

			input[low] = input[high]
			indices[low] = indices[high]

			for low < high && input[low] >= key {
				low++
			}

			input[high] = input[low]
			indices[high] = indices[low]
		}

		input[low] = key
		indices[low] = keyIndex

		quickSortIndiceInverse(input, left, low-1, indices)
		quickSortIndiceInverse(input, low+1, right, indices)
	}

	return low
}

// nms implements Non-Maximum Suppression over the candidate boxes,
// suppressed entries have their order index set to -1
func nms(validCount int, boxes []float32, order []int, threshold float32) {

	for i := 0; i < validCount; i++ {

		if order[i] == -1 {
			continue
		}

		n := order[i]

		for j := i + 1; j < validCount; j++ {
			m := order[j]

			if m == -1 {
				continue
			}

			xmin0 := boxes[n*4+0]
			ymin0 := boxes[n*4+1]
			xmax0 := xmin0 + boxes[n*4+2]
			ymax0 := ymin0 + boxes[n*4+3]

			xmin1 := boxes[m*4+0]
			ymin1 := boxes[m*4+1]
			xmax1 := xmin1 + boxes[m*4+2]
			ymax1 := ymin1 + boxes[m*4+3]

			iou := calculateOverlap(xmin0, ymin0, xmax0, ymax0,
				xmin1, ymin1, xmax1, ymax1)

			if iou > threshold {
				order[j] = -1
			}
		}
	}
}

// calculateOverlap works out the Intersection over Union (IoU) value of two
// boxes dimensions
func calculateOverlap(xmin0, ymin0, xmax0, ymax0, xmin1, ymin1,
	xmax1, ymax1 float32) float32 {

	w := maxf(0, minf(xmax0, xmax1)-maxf(xmin0, xmin1)+1)
	h := maxf(0, minf(ymax0, ymax1)-maxf(ymin0, ymin1)+1)
	intersection := w * h

	union := (xmax0-xmin0+1)*(ymax0-ymin0+1) +
		(xmax1-xmin1+1)*(ymax1-ymin1+1) - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
