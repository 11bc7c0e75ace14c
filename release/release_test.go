package release

import (
	"math"
	"testing"

	"github.com/courtvision/shotform/pose"
)

// almostEqual checks if two float64 values are approximately equal
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// armFrame builds a sample with the right arm at the given joint positions
func armFrame(ts, shoulderX, shoulderY, elbowX, elbowY, wristX, wristY float64) pose.Sample {
	return pose.Sample{
		Timestamp: ts,
		Pose: pose.PersonPose{
			Timestamp: ts,
			Points: []pose.Keypoint{
				{Name: pose.RightShoulder, X: shoulderX, Y: shoulderY, Score: 0.9},
				{Name: pose.RightElbow, X: elbowX, Y: elbowY, Score: 0.9},
				{Name: pose.RightWrist, X: wristX, Y: wristY, Score: 0.9},
			},
		},
	}
}

// shotClip builds a 5 sample clip where the arm extends past 150 degrees at
// sample 3 with the wrist risen well beyond the lift threshold
func shotClip() []pose.Sample {
	return []pose.Sample{
		// bent arm, wrist low
		armFrame(0.000, 100, 100, 100, 140, 140, 140),
		armFrame(0.033, 100, 100, 100, 140, 138, 128),
		armFrame(0.066, 100, 100, 100, 120, 130, 95),
		// extended overhead, wrist risen
		armFrame(0.100, 100, 100, 100, 60, 117, 23),
		armFrame(0.133, 100, 100, 100, 60, 117, 23),
	}
}

// TestDetect covers the release scan: the extended arm plus wrist rise at
// sample 3 is the release, and the same clip without any wrist rise yields
// no release at all
func TestDetect(t *testing.T) {

	idx, ok := Detect(shotClip(), DefaultParams())
	if !ok {
		t.Fatal("release not detected")
	}
	if idx != 3 {
		t.Errorf("expected release at sample 3, got %d", idx)
	}

	// arm extended in every frame but the wrist never rises
	flat := []pose.Sample{
		armFrame(0.000, 100, 100, 100, 60, 117, 23),
		armFrame(0.033, 100, 100, 100, 60, 117, 23),
		armFrame(0.066, 100, 100, 100, 60, 117, 23),
		armFrame(0.100, 100, 100, 100, 60, 117, 23),
		armFrame(0.133, 100, 100, 100, 60, 117, 23),
	}

	if _, ok := Detect(flat, DefaultParams()); ok {
		t.Error("release detected without a qualifying wrist rise")
	}
}

func TestDetectTooFewSamples(t *testing.T) {

	clip := shotClip()[:2]

	if _, ok := Detect(clip, DefaultParams()); ok {
		t.Error("release detected from fewer than 3 usable samples")
	}
}

// TestDetectSkipsUnusableFrames verifies frames with missing keypoints are
// skipped without halting the scan, and returned indexes refer to the
// original sample positions
func TestDetectSkipsUnusableFrames(t *testing.T) {

	clip := shotClip()

	// splice an empty frame into the middle
	spliced := make([]pose.Sample, 0, len(clip)+1)
	spliced = append(spliced, clip[:2]...)
	spliced = append(spliced, pose.Sample{Timestamp: 0.05})
	spliced = append(spliced, clip[2:]...)

	idx, ok := Detect(spliced, DefaultParams())
	if !ok {
		t.Fatal("release not detected with an unusable frame present")
	}
	if idx != 4 {
		t.Errorf("expected release at original sample index 4, got %d", idx)
	}
}

func TestDetectAngleThreshold(t *testing.T) {

	p := DefaultParams()
	p.MinElbowAngle = 179

	// the extended frames reach ~155 degrees which no longer qualifies
	if _, ok := Detect(shotClip(), p); ok {
		t.Error("release detected below the elbow angle threshold")
	}
}

// stabilityClip builds frames with fixed shoulders 40px apart, a hip
// midpoint that shifts laterally, and a moving elbow
func stabilityClip() []pose.Sample {

	frame := func(ts, hipMidX, elbowX float64) pose.Sample {
		return pose.Sample{
			Timestamp: ts,
			Pose: pose.PersonPose{
				Timestamp: ts,
				Points: []pose.Keypoint{
					{Name: pose.LeftShoulder, X: 80, Y: 100, Score: 0.9},
					{Name: pose.RightShoulder, X: 120, Y: 100, Score: 0.9},
					{Name: pose.RightElbow, X: elbowX, Y: 130, Score: 0.9},
					{Name: pose.RightWrist, X: elbowX + 20, Y: 150, Score: 0.9},
					{Name: pose.LeftHip, X: hipMidX - 10, Y: 200, Score: 0.9},
					{Name: pose.RightHip, X: hipMidX + 10, Y: 200, Score: 0.9},
					{Name: pose.LeftAnkle, X: 90, Y: 300, Score: 0.9},
					{Name: pose.RightAnkle, X: 110, Y: 300, Score: 0.9},
				},
			},
		}
	}

	return []pose.Sample{
		frame(0.000, 100, 150),
		frame(0.033, 104, 160),
	}
}

func TestClipStability(t *testing.T) {

	s := ClipStability(stabilityClip(), 0.15)

	// body width is the 40px shoulder span in every frame
	if s.ElbowCompactness == nil {
		t.Fatal("elbow compactness absent")
	}
	if !almostEqual(*s.ElbowCompactness, 10.0/40.0, 1e-9) {
		t.Errorf("elbow compactness expected 0.25, got %f", *s.ElbowCompactness)
	}

	if s.CenterSway == nil {
		t.Fatal("center sway absent")
	}
	// normalized hip x values 2.5 and 2.6, sample variance 0.005
	if !almostEqual(*s.CenterSway, 0.005, 1e-9) {
		t.Errorf("center sway expected 0.005, got %f", *s.CenterSway)
	}

	if s.FinalAlignment == nil {
		t.Fatal("final alignment absent")
	}
	// final frame hip midpoint 104 versus ankle midpoint 100
	if !almostEqual(*s.FinalAlignment, 4.0/40.0, 1e-9) {
		t.Errorf("final alignment expected 0.1, got %f", *s.FinalAlignment)
	}
}

// TestClipStabilityNoBody verifies an unmeasurable clip yields absent
// values rather than zeros
func TestClipStabilityNoBody(t *testing.T) {

	clip := []pose.Sample{
		{Timestamp: 0},
		{Timestamp: 0.033},
	}

	s := ClipStability(clip, 0.15)

	if s.ElbowCompactness != nil || s.CenterSway != nil || s.FinalAlignment != nil {
		t.Error("stability measured from an empty clip")
	}
}
