package shotform

import (
	"reflect"
	"testing"

	"github.com/courtvision/shotform/pose"
)

// shooterPose builds a full body pose for frame i of a synthetic shooting
// motion: bent arm for the first six frames, then extended overhead with
// the wrist risen
func shooterPose(i int) pose.PersonPose {

	kp := func(name pose.Name, x, y float64) pose.Keypoint {
		return pose.Keypoint{Name: name, X: x, Y: y, Score: 0.9}
	}

	points := []pose.Keypoint{
		kp(pose.Nose, 100, 80),
		kp(pose.LeftShoulder, 90, 100),
		kp(pose.RightShoulder, 110, 100),
		kp(pose.LeftHip, 90, 160),
		kp(pose.RightHip, 110, 160),
		kp(pose.LeftKnee, 90, 210),
		kp(pose.RightKnee, 110, 210),
		kp(pose.LeftAnkle, 90, 260),
		kp(pose.RightAnkle, 110, 260),
	}

	if i < 6 {
		// ball held at the chest
		points = append(points,
			kp(pose.RightElbow, 120, 130),
			kp(pose.RightWrist, 150, 130),
		)
	} else {
		// arm extended overhead
		points = append(points,
			kp(pose.RightElbow, 110, 60),
			kp(pose.RightWrist, 110, 20),
		)
	}

	return pose.PersonPose{Points: points}
}

// spectatorPose is a small background person high in the frame
func spectatorPose() pose.PersonPose {
	return pose.PersonPose{
		Points: []pose.Keypoint{
			{Name: pose.Nose, X: 500, Y: 30, Score: 0.5},
			{Name: pose.LeftShoulder, X: 495, Y: 40, Score: 0.5},
			{Name: pose.RightShoulder, X: 505, Y: 40, Score: 0.5},
		},
	}
}

func syntheticClip() []pose.MultiPersonFrame {

	frames := make([]pose.MultiPersonFrame, 12)

	for i := range frames {
		frames[i] = pose.MultiPersonFrame{
			Timestamp: float64(i) / 30.0,
			Width:     640,
			Height:    480,
			Persons: []pose.PersonPose{
				spectatorPose(),
				shooterPose(i),
			},
		}
	}

	return frames
}

func TestSessionProcessFrame(t *testing.T) {

	session := NewSession(DefaultConfig())

	for i, frame := range syntheticClip() {
		smoothed, ok := session.ProcessFrame(frame)
		if !ok {
			t.Fatalf("frame %d: no subject selected", i)
		}

		// the shooter, not the spectator, must be selected
		if kp, found := smoothed.Point(pose.LeftAnkle); !found || kp.Y < 200 {
			t.Fatalf("frame %d: wrong subject selected", i)
		}
	}

	if got := len(session.Samples()); got != 12 {
		t.Errorf("expected 12 collected samples, got %d", got)
	}
}

func TestSessionEmptyFrame(t *testing.T) {

	session := NewSession(DefaultConfig())

	if _, ok := session.ProcessFrame(pose.MultiPersonFrame{Width: 640, Height: 480}); ok {
		t.Error("subject selected from an empty frame")
	}
	if len(session.Samples()) != 0 {
		t.Error("empty frame was collected")
	}
}

func TestSessionFeatures(t *testing.T) {

	session := NewSession(DefaultConfig())

	for _, frame := range syntheticClip() {
		session.ProcessFrame(frame)
	}

	features := session.Features()

	if features.Squat == nil {
		t.Error("squat measurement absent")
	}
	if features.ElbowTight == nil || features.Center == nil || features.Align == nil {
		t.Error("clip stability measurements absent")
	}
	if features.ReleaseAngle == nil {
		t.Error("release not detected in the synthetic shot")
	}
	if features.ArmPower == nil {
		t.Error("arm power absent despite a detected release")
	}
}

// TestSessionDeterminism runs the full pipeline twice on identical input
// with fresh state and requires identical score output
func TestSessionDeterminism(t *testing.T) {

	clip := syntheticClip()

	run := func() any {
		session := NewSession(DefaultConfig())
		for _, frame := range clip {
			session.ProcessFrame(frame)
		}
		return session.Score()
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("pipeline not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestSessionRescoreIdempotent verifies scoring the same collected clip
// repeatedly yields the same result with no side effects
func TestSessionRescoreIdempotent(t *testing.T) {

	session := NewSession(DefaultConfig())
	for _, frame := range syntheticClip() {
		session.ProcessFrame(frame)
	}

	first := session.Score()
	second := session.Score()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-scoring diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSessionReset(t *testing.T) {

	session := NewSession(DefaultConfig())

	for _, frame := range syntheticClip() {
		session.ProcessFrame(frame)
	}

	session.Reset()

	if len(session.Samples()) != 0 {
		t.Error("samples survived reset")
	}

	// after reset the first frame seeds the filters again, the smoothed
	// pose equals the raw pose exactly
	frame := syntheticClip()[0]
	smoothed, ok := session.ProcessFrame(frame)
	if !ok {
		t.Fatal("no subject selected after reset")
	}

	raw := shooterPose(0)
	for _, kp := range smoothed.Points {
		rawKp, _ := raw.Point(kp.Name)
		if kp.X != rawKp.X || kp.Y != rawKp.Y {
			t.Errorf("filter state survived reset for %s", kp.Name)
		}
	}
}

func TestSessionScoreBounds(t *testing.T) {

	session := NewSession(DefaultConfig())
	for _, frame := range syntheticClip() {
		session.ProcessFrame(frame)
	}

	res := session.Score()

	if res.Total < 0 || res.Total > 100 {
		t.Errorf("total out of range: %d", res.Total)
	}
}

func TestFrameFeatures(t *testing.T) {

	session := NewSession(DefaultConfig())

	features := session.FrameFeatures(shooterPose(0))

	if features.KneeFlexion == nil {
		t.Error("knee flexion absent")
	}
	if features.ElbowAngle == nil {
		t.Error("elbow angle absent")
	}
	if features.TorsoAlignment == nil {
		t.Error("torso alignment absent")
	}
	if features.LateralOffset == nil {
		t.Error("lateral offset absent")
	}
}
