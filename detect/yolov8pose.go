package detect

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/courtvision/shotform/pose"
)

// Params defines the YOLOv8 pose model post processing parameters.
type Params struct {
	// ConfThreshold is the minimum probability score required for a
	// candidate detection to be considered for processing
	ConfThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold defining the
	// maximum allowed Intersection over Union (IoU) between two boxes
	// for both to be kept
	NMSThreshold float32
	// MaxSubjects is the maximum number of people returned per frame
	MaxSubjects int
	// InputSize is the square network input dimension in pixels
	InputSize int
}

// DefaultParams returns an instance of Params configured for a COCO trained
// pose model featuring:
// - Confidence Threshold: 0.5
// - NMS Threshold: 0.4
// - Maximum Subjects: 8
// - Input Size: 640
func DefaultParams() Params {
	return Params{
		ConfThreshold: 0.5,
		NMSThreshold:  0.4,
		MaxSubjects:   8,
		InputSize:     640,
	}
}

// YOLOv8Pose runs a YOLOv8 pose estimation model through the OpenCV DNN
// module and decodes its output tensor into named keypoint frames.  The
// model file is an ONNX export with the standard single output layout of
// [1, 4+1+kp*3, anchors].
type YOLOv8Pose struct {
	params Params
	net    gocv.Net
}

// NewYOLOv8Pose loads the pose model from the given ONNX file.
func NewYOLOv8Pose(modelPath string, p Params) (*YOLOv8Pose, error) {

	net := gocv.ReadNet(modelPath, "")

	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", modelPath)
	}

	return &YOLOv8Pose{
		params: p,
		net:    net,
	}, nil
}

// Close releases the network resources.
func (d *YOLOv8Pose) Close() error {
	return d.net.Close()
}

// Detect runs pose estimation on the frame and returns all candidate
// people with their named keypoints in source pixel coordinates.
func (d *YOLOv8Pose) Detect(img gocv.Mat, timestamp float64) (pose.MultiPersonFrame, error) {

	frame := pose.MultiPersonFrame{
		Timestamp: timestamp,
		Width:     img.Cols(),
		Height:    img.Rows(),
	}

	lb := NewLetterbox(img.Cols(), img.Rows(), d.params.InputSize, d.params.InputSize)
	defer lb.Close()

	square := gocv.NewMat()
	defer square.Close()

	lb.Resize(img, &square, color.RGBA{R: 114, G: 114, B: 114, A: 255})

	blob := gocv.BlobFromImage(square, 1.0/255.0,
		image.Pt(d.params.InputSize, d.params.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	persons, err := d.decode(out, lb)
	if err != nil {
		return frame, err
	}

	for i := range persons {
		persons[i].Timestamp = timestamp
	}
	frame.Persons = persons

	return frame, nil
}

// decode converts the raw output tensor into per person keypoint sets.
// The channel layout per anchor is 4 box values, 1 confidence, then x/y/
// score triples for each keypoint.
func (d *YOLOv8Pose) decode(out gocv.Mat, lb *Letterbox) ([]pose.PersonPose, error) {

	sizes := out.Size()

	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected output tensor rank %d", len(sizes))
	}

	channels := sizes[1]
	anchors := sizes[2]

	if channels < 5 || (channels-5)%3 != 0 {
		return nil, fmt.Errorf("unexpected output channel count %d", channels)
	}

	kpCount := (channels - 5) / 3

	vals, err := tensorFloats(out)
	if err != nil {
		return nil, err
	}

	if len(vals) < channels*anchors {
		return nil, fmt.Errorf("output tensor too short: %d values", len(vals))
	}

	// filter candidates by confidence
	var boxes []float32
	var probs []float32
	var kpIdx []int

	for i := 0; i < anchors; i++ {

		conf := vals[4*anchors+i]

		if conf < d.params.ConfThreshold {
			continue
		}

		cx := vals[0*anchors+i]
		cy := vals[1*anchors+i]
		w := vals[2*anchors+i]
		h := vals[3*anchors+i]

		boxes = append(boxes, cx-w/2, cy-h/2, w, h)
		probs = append(probs, conf)
		kpIdx = append(kpIdx, i)
	}

	validCount := len(probs)

	if validCount == 0 {
		// no person detected
		return nil, nil
	}

	// indexArray keeps an index of candidates while probs are sorted
	indexArray := make([]int, validCount)

	for i := 0; i < validCount; i++ {
		indexArray[i] = i
	}

	quickSortIndiceInverse(probs, 0, validCount-1, indexArray)
	nms(validCount, boxes, indexArray, d.params.NMSThreshold)

	// collate surviving candidates into keypoint sets
	persons := make([]pose.PersonPose, 0, d.params.MaxSubjects)

	for i := 0; i < validCount; i++ {

		if indexArray[i] == -1 || len(persons) >= d.params.MaxSubjects {
			continue
		}

		anchor := kpIdx[indexArray[i]]
		person := pose.PersonPose{
			Points: make([]pose.Keypoint, 0, kpCount),
		}

		for k := 0; k < kpCount && k < len(pose.CocoNames); k++ {

			kx := float64(vals[(5+k*3+0)*anchors+anchor])
			ky := float64(vals[(5+k*3+1)*anchors+anchor])
			ks := float64(vals[(5+k*3+2)*anchors+anchor])

			sx, sy := lb.ToSource(kx, ky)

			person.Points = append(person.Points, pose.Keypoint{
				Name:  pose.CocoNames[k],
				X:     sx,
				Y:     sy,
				Score: ks,
			})
		}

		persons = append(persons, person)
	}

	return persons, nil
}
