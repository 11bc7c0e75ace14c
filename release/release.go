// Package release locates the shot release frame in a smoothed clip and
// derives clip level stability measurements.
//
// The release frame is found by walking the time ordered samples with a
// short lookback window: the first frame where the shooting elbow is near
// fully extended and the wrist has risen against at least one frame in the
// window is the release.  Thresholds are empirically chosen defaults and
// remain configuration, they have not been validated against motion capture
// ground truth.
package release

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/courtvision/shotform/kinematics"
	"github.com/courtvision/shotform/pose"
)

// Params configures release detection.
type Params struct {
	// MinElbowAngle is the minimum shoulder-elbow-wrist angle in degrees
	// for the arm to count as near fully extended
	MinElbowAngle float64
	// MinWristLift is the minimum upward wrist travel in pixels relative
	// to a frame inside the lookback window.  The image y axis grows
	// downward so a rise is a negative y delta
	MinWristLift float64
	// Lookback is the number of preceding frames checked for wrist rise
	Lookback int
	// MinConfidence is the keypoint confidence threshold for the angle
	// and wrist measurements
	MinConfidence float64
}

// DefaultParams returns release detection parameters with:
// - Minimum Elbow Angle: 150 degrees
// - Minimum Wrist Lift: 4 pixels
// - Lookback: 2 frames
// - Minimum Confidence: 0.15
func DefaultParams() Params {
	return Params{
		MinElbowAngle: 150,
		MinWristLift:  4,
		Lookback:      2,
		MinConfidence: kinematics.DefaultMinConfidence,
	}
}

// wristName returns the wrist keypoint name for the given arm side
func wristName(side kinematics.Side) pose.Name {
	if side == kinematics.Left {
		return pose.LeftWrist
	}
	return pose.RightWrist
}

// Detect scans the time ordered clip for the release frame and returns its
// sample index.  Frames whose required keypoints are missing are skipped
// without halting the scan.  Returns false when fewer than 3 usable samples
// exist or no frame satisfies both the arm extension and wrist rise
// conditions, there is no fallback guess.
func Detect(samples []pose.Sample, p Params) (int, bool) {

	ex := kinematics.Extractor{MinConfidence: p.MinConfidence}

	type frameObs struct {
		idx    int
		angle  float64
		wristY float64
	}

	// collect usable observations keeping original sample indexes
	obs := make([]frameObs, 0, len(samples))

	for i, sample := range samples {

		angle, side, ok := ex.ElbowAngle(sample.Pose)
		if !ok {
			continue
		}

		wrist, found := sample.Pose.Point(wristName(side))
		if !found || wrist.Score < p.MinConfidence {
			continue
		}

		obs = append(obs, frameObs{idx: i, angle: angle, wristY: wrist.Y})
	}

	if len(obs) < 3 {
		return 0, false
	}

	for i := range obs {

		if obs[i].angle < p.MinElbowAngle {
			continue
		}

		// wrist must have risen against at least one frame in the
		// lookback window
		for j := i - p.Lookback; j < i; j++ {
			if j < 0 {
				continue
			}
			if obs[j].wristY-obs[i].wristY >= p.MinWristLift {
				return obs[i].idx, true
			}
		}
	}

	return 0, false
}

// Stability holds clip level balance measurements, each normalized by body
// width so values are resolution independent.  A nil field means the
// measurement could not be made.
type Stability struct {
	// ElbowCompactness is the horizontal span of the shooting elbow's
	// path across the clip divided by body width
	ElbowCompactness *float64
	// CenterSway is the variance of the hip midpoint's normalized
	// x coordinate across the clip
	CenterSway *float64
	// FinalAlignment is the hip to ankle midpoint horizontal offset
	// divided by body width in the last usable frame
	FinalAlignment *float64
}

// ClipStability derives the balance measurements from the full clip.  The
// measurements do not depend on a release frame being found.
func ClipStability(samples []pose.Sample, minConfidence float64) Stability {

	ex := kinematics.Extractor{MinConfidence: minConfidence}

	bodyWidth, ok := meanBodyWidth(samples, ex)
	if !ok {
		return Stability{}
	}

	var out Stability

	if span, ok := elbowSpan(samples, ex); ok {
		v := span / bodyWidth
		out.ElbowCompactness = &v
	}

	if sway, ok := hipSway(samples, ex, bodyWidth); ok {
		out.CenterSway = &sway
	}

	if align, ok := finalAlignment(samples, ex, bodyWidth); ok {
		out.FinalAlignment = &align
	}

	return out
}

// meanBodyWidth averages the shoulder span across usable frames, falling
// back to the hip span when shoulders never resolve
func meanBodyWidth(samples []pose.Sample, ex kinematics.Extractor) (float64, bool) {

	if w, ok := meanSpan(samples, ex, pose.LeftShoulder, pose.RightShoulder); ok {
		return w, true
	}
	return meanSpan(samples, ex, pose.LeftHip, pose.RightHip)
}

func meanSpan(samples []pose.Sample, ex kinematics.Extractor, a, b pose.Name) (float64, bool) {

	widths := make([]float64, 0, len(samples))

	for _, sample := range samples {
		ka, ok := usable(sample.Pose, a, ex.MinConfidence)
		if !ok {
			continue
		}
		kb, ok := usable(sample.Pose, b, ex.MinConfidence)
		if !ok {
			continue
		}
		w := math.Hypot(ka.X-kb.X, ka.Y-kb.Y)
		if w > 0 {
			widths = append(widths, w)
		}
	}

	if len(widths) == 0 {
		return 0, false
	}

	return stat.Mean(widths, nil), true
}

// elbowSpan measures the horizontal travel of the shooting elbow across the
// clip.  The elbow side is chosen per frame by arm confidence, consistent
// with the release scan.
func elbowSpan(samples []pose.Sample, ex kinematics.Extractor) (float64, bool) {

	minX := math.Inf(1)
	maxX := math.Inf(-1)
	count := 0

	for _, sample := range samples {

		_, side, ok := ex.ElbowAngle(sample.Pose)
		if !ok {
			continue
		}

		name := pose.RightElbow
		if side == kinematics.Left {
			name = pose.LeftElbow
		}

		elbow, found := usable(sample.Pose, name, ex.MinConfidence)
		if !found {
			continue
		}

		minX = math.Min(minX, elbow.X)
		maxX = math.Max(maxX, elbow.X)
		count++
	}

	if count < 2 {
		return 0, false
	}

	return maxX - minX, true
}

// hipSway computes the variance of the hip midpoint x coordinate in body
// width units
func hipSway(samples []pose.Sample, ex kinematics.Extractor, bodyWidth float64) (float64, bool) {

	xs := make([]float64, 0, len(samples))

	for _, sample := range samples {
		mid, ok := midpoint(sample.Pose, pose.LeftHip, pose.RightHip, ex.MinConfidence)
		if !ok {
			continue
		}
		xs = append(xs, mid.x/bodyWidth)
	}

	if len(xs) < 2 {
		return 0, false
	}

	return stat.Variance(xs, nil), true
}

// finalAlignment measures the hip versus ankle midpoint horizontal offset
// in the last frame where both resolve
func finalAlignment(samples []pose.Sample, ex kinematics.Extractor, bodyWidth float64) (float64, bool) {

	for i := len(samples) - 1; i >= 0; i-- {

		hipMid, ok := midpoint(samples[i].Pose, pose.LeftHip, pose.RightHip, ex.MinConfidence)
		if !ok {
			continue
		}
		ankleMid, ok := midpoint(samples[i].Pose, pose.LeftAnkle, pose.RightAnkle, ex.MinConfidence)
		if !ok {
			continue
		}

		return math.Abs(hipMid.x-ankleMid.x) / bodyWidth, true
	}

	return 0, false
}

type point2 struct {
	x, y float64
}

func usable(p pose.PersonPose, name pose.Name, minConfidence float64) (pose.Keypoint, bool) {
	kp, ok := p.Point(name)
	if !ok || kp.Score < minConfidence {
		return pose.Keypoint{}, false
	}
	return kp, true
}

func midpoint(p pose.PersonPose, a, b pose.Name, minConfidence float64) (point2, bool) {

	ka, ok := usable(p, a, minConfidence)
	if !ok {
		return point2{}, false
	}
	kb, ok := usable(p, b, minConfidence)
	if !ok {
		return point2{}, false
	}

	return point2{(ka.X + kb.X) / 2, (ka.Y + kb.Y) / 2}, true
}
