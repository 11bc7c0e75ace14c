package detect

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/courtvision/shotform/pose"
)

// VideoSource reads frames from a video file or camera device and runs the
// pose model on each, yielding one MultiPersonFrame per video frame.
type VideoSource struct {
	cap      *gocv.VideoCapture
	det      *YOLOv8Pose
	frame    gocv.Mat
	fps      float64
	frameNum int
}

// NewVideoSource opens the given video device or file and attaches the
// pose detector.  The detector remains owned by the caller.
func NewVideoSource(device string, det *YOLOv8Pose) (*VideoSource, error) {

	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", device, err)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		// camera devices commonly report no rate
		fps = 30
	}

	return &VideoSource{
		cap:   cap,
		det:   det,
		frame: gocv.NewMat(),
		fps:   fps,
	}, nil
}

// Next reads and analyses the next video frame.  Returns io.EOF once the
// stream ends.  Frame timestamps derive from the stream frame rate so they
// are monotonically increasing.
func (v *VideoSource) Next() (pose.MultiPersonFrame, error) {

	if ok := v.cap.Read(&v.frame); !ok || v.frame.Empty() {
		return pose.MultiPersonFrame{}, io.EOF
	}

	timestamp := float64(v.frameNum) / v.fps
	v.frameNum++

	return v.det.Detect(v.frame, timestamp)
}

// Close releases the capture device.  The attached detector is not closed.
func (v *VideoSource) Close() error {
	v.frame.Close()
	return v.cap.Close()
}
