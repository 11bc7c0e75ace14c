// Package kinematics derives instantaneous body measurements from a single
// pose.  All functions are pure, the measurements extracted are:
//
//   - Three point joint angle: angle at a vertex keypoint via the vector
//     dot product, used for knee flexion and elbow extension
//   - Knee flexion: hip-knee-ankle angle per side in degrees
//   - Elbow angle: shoulder-elbow-wrist angle of the shooting arm
//   - Torso/foot alignment: difference between the hip line and ankle line
//     angles in degrees
//   - Lateral offset: horizontal center of mass displacement as a
//     percentage of body scale, resolution independent
//
// A measurement that cannot be computed (missing keypoints, confidence
// below threshold, degenerate geometry) is reported as absent, never as a
// zero or a NaN.  Callers must treat absence as unknown, not as bad.
package kinematics

import (
	"math"

	"github.com/courtvision/shotform/pose"
)

// DefaultMinConfidence is the keypoint confidence below which a keypoint is
// treated as unobserved.
const DefaultMinConfidence = 0.15

// Side selects the left or right limb of a measurement.
type Side int

const (
	Left Side = iota
	Right
)

// String returns the side name.
func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Angle computes the angle in degrees at vertex b formed by the vectors
// b->a and b->c.  Returns false when either vector has zero length.  The
// dot product ratio is clamped to [-1,1] so near-collinear points can never
// produce a NaN.
func Angle(a, b, c pose.Keypoint) (float64, bool) {

	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)

	if magBA == 0 || magBC == 0 {
		return 0, false
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi, true
}

// Extractor computes named measurements from poses, treating keypoints
// below MinConfidence as unobserved.
type Extractor struct {
	// MinConfidence is the minimum keypoint score for a keypoint to
	// participate in a measurement
	MinConfidence float64
}

// NewExtractor returns an Extractor using DefaultMinConfidence.
func NewExtractor() Extractor {
	return Extractor{MinConfidence: DefaultMinConfidence}
}

// usable returns the named keypoint when present with sufficient confidence
func (e Extractor) usable(p pose.PersonPose, name pose.Name) (pose.Keypoint, bool) {
	kp, ok := p.Point(name)
	if !ok || kp.Score < e.MinConfidence {
		return pose.Keypoint{}, false
	}
	return kp, true
}

// JointAngle computes the angle at vertex b for the named keypoint triple.
// Absent when any keypoint is unobserved or the geometry is degenerate.
func (e Extractor) JointAngle(p pose.PersonPose, a, b, c pose.Name) (float64, bool) {

	ka, ok := e.usable(p, a)
	if !ok {
		return 0, false
	}
	kb, ok := e.usable(p, b)
	if !ok {
		return 0, false
	}
	kc, ok := e.usable(p, c)
	if !ok {
		return 0, false
	}

	return Angle(ka, kb, kc)
}

// KneeFlexion computes the hip-knee-ankle angle for the given side.
func (e Extractor) KneeFlexion(p pose.PersonPose, side Side) (float64, bool) {
	if side == Left {
		return e.JointAngle(p, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	}
	return e.JointAngle(p, pose.RightHip, pose.RightKnee, pose.RightAnkle)
}

// BestKneeFlexion computes knee flexion preferring the side whose keypoint
// triple carries the higher mean confidence, falling back to the other side.
// Sides are never averaged.
func (e Extractor) BestKneeFlexion(p pose.PersonPose) (float64, bool) {

	first, second := Left, Right
	if e.sideConfidence(p, pose.RightHip, pose.RightKnee, pose.RightAnkle) >
		e.sideConfidence(p, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle) {
		first, second = Right, Left
	}

	if angle, ok := e.KneeFlexion(p, first); ok {
		return angle, true
	}
	return e.KneeFlexion(p, second)
}

// ElbowAngle computes the shoulder-elbow-wrist angle of the arm whose
// keypoints carry the higher mean confidence, falling back to the other
// arm.  The chosen side is returned so callers can keep related
// measurements (wrist height, elbow path) on the same limb.
func (e Extractor) ElbowAngle(p pose.PersonPose) (float64, Side, bool) {

	first, second := Left, Right
	if e.sideConfidence(p, pose.RightShoulder, pose.RightElbow, pose.RightWrist) >
		e.sideConfidence(p, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist) {
		first, second = Right, Left
	}

	if angle, ok := e.armAngle(p, first); ok {
		return angle, first, true
	}
	if angle, ok := e.armAngle(p, second); ok {
		return angle, second, true
	}
	return 0, first, false
}

func (e Extractor) armAngle(p pose.PersonPose, side Side) (float64, bool) {
	if side == Left {
		return e.JointAngle(p, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
	}
	return e.JointAngle(p, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
}

// sideConfidence returns the mean confidence of the named keypoints, zero
// when any of them is missing entirely
func (e Extractor) sideConfidence(p pose.PersonPose, names ...pose.Name) float64 {

	sum := 0.0

	for _, name := range names {
		kp, ok := p.Point(name)
		if !ok {
			return 0
		}
		sum += kp.Score
	}

	return sum / float64(len(names))
}

// TorsoFootAlignment computes the absolute difference in degrees between
// the hip line angle and the ankle line angle.  A squared up shooter has
// both lines near parallel and a value near zero.
func (e Extractor) TorsoFootAlignment(p pose.PersonPose) (float64, bool) {

	lHip, ok := e.usable(p, pose.LeftHip)
	if !ok {
		return 0, false
	}
	rHip, ok := e.usable(p, pose.RightHip)
	if !ok {
		return 0, false
	}
	lAnkle, ok := e.usable(p, pose.LeftAnkle)
	if !ok {
		return 0, false
	}
	rAnkle, ok := e.usable(p, pose.RightAnkle)
	if !ok {
		return 0, false
	}

	hipAngle, ok := lineAngle(lHip, rHip)
	if !ok {
		return 0, false
	}
	ankleAngle, ok := lineAngle(lAnkle, rAnkle)
	if !ok {
		return 0, false
	}

	diff := math.Abs(hipAngle - ankleAngle)
	if diff > 180 {
		diff = 360 - diff
	}

	return diff, true
}

// LateralOffset computes the horizontal displacement between the hip
// midpoint and the ankle midpoint as a percentage of body scale.  Body
// scale is the hip to ankle midpoint span, falling back to the hip to nose
// distance when the ankles do not resolve a usable span.
func (e Extractor) LateralOffset(p pose.PersonPose) (float64, bool) {

	hipMid, ok := e.midpoint(p, pose.LeftHip, pose.RightHip)
	if !ok {
		return 0, false
	}
	ankleMid, ok := e.midpoint(p, pose.LeftAnkle, pose.RightAnkle)
	if !ok {
		return 0, false
	}

	scale := dist(hipMid, ankleMid)

	if scale == 0 {
		nose, ok := e.usable(p, pose.Nose)
		if !ok {
			return 0, false
		}
		scale = dist(hipMid, point{nose.X, nose.Y})
		if scale == 0 {
			return 0, false
		}
	}

	return math.Abs(hipMid.x-ankleMid.x) / scale * 100, true
}

type point struct {
	x, y float64
}

// midpoint returns the midpoint of two named keypoints
func (e Extractor) midpoint(p pose.PersonPose, a, b pose.Name) (point, bool) {

	ka, ok := e.usable(p, a)
	if !ok {
		return point{}, false
	}
	kb, ok := e.usable(p, b)
	if !ok {
		return point{}, false
	}

	return point{(ka.X + kb.X) / 2, (ka.Y + kb.Y) / 2}, true
}

func dist(a, b point) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

// lineAngle returns the angle of the line a->b versus horizontal in
// degrees, false for coincident points
func lineAngle(a, b pose.Keypoint) (float64, bool) {

	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return 0, false
	}

	return math.Atan2(dy, dx) * 180 / math.Pi, true
}
