package smoother

import (
	"math"

	"github.com/courtvision/shotform/pose"
)

const (
	// minTimeDelta is the smallest elapsed time used in the derivative
	// estimate, positive deltas below this are clamped up to it
	minTimeDelta = 1e-3
	// minCutoffFloor keeps the smoothing factor denominator positive even
	// with a degenerate all-zero parameter configuration
	minCutoffFloor = 1e-6
)

// Params holds the adaptive (one-Euro) filter tuning parameters.
type Params struct {
	// MinCutoff is the baseline cutoff frequency in Hz.  Higher values
	// smooth less and lag less
	MinCutoff float64
	// Beta scales the cutoff with the estimated signal speed so fast
	// motion is tracked more responsively
	Beta float64
	// DCutoff is the cutoff frequency applied to the derivative estimate
	DCutoff float64
}

// DefaultParams returns filter parameters tuned for pose keypoints sampled
// at typical video frame rates (~30fps):
// - Min Cutoff: 1.7
// - Beta: 0.3
// - Derivative Cutoff: 1.0
func DefaultParams() Params {
	return Params{
		MinCutoff: 1.7,
		Beta:      0.3,
		DCutoff:   1.0,
	}
}

// axisState is the filter state for a single coordinate axis
type axisState struct {
	value float64
	deriv float64
}

// pointState is the per point-id filter state.  The x and y axes are
// filtered independently and share the point's last update timestamp.
type pointState struct {
	x      axisState
	y      axisState
	lastTS float64
}

// PoseSmoother applies an independent adaptive exponential filter to each
// coordinate axis of each tracked keypoint.  State is keyed by keypoint name
// and belongs to a single tracked subject within one analysis session, a new
// session must use a fresh smoother or call Reset.  Not safe for concurrent
// use, the pipeline is frame-synchronous.
type PoseSmoother struct {
	params Params
	points map[pose.Name]*pointState
}

// NewPoseSmoother returns a PoseSmoother with empty filter state.
func NewPoseSmoother(p Params) *PoseSmoother {
	return &PoseSmoother{
		params: p,
		points: make(map[pose.Name]*pointState),
	}
}

// Reset discards all per point-id filter state.  Must be called when a new
// video or analysis session starts so the first frames are not biased
// toward the previous clip's trajectory.
func (s *PoseSmoother) Reset() {
	s.points = make(map[pose.Name]*pointState)
}

// Update filters one observation of the given point-id and returns the
// stabilized coordinates.  The first observation for a point-id is returned
// unchanged and seeds the state.  A non-increasing timestamp is a no-op
// update that returns the last filtered values without touching state.
func (s *PoseSmoother) Update(id pose.Name, x, y, timestamp float64) (float64, float64) {

	ps, exists := s.points[id]

	if !exists {
		s.points[id] = &pointState{
			x:      axisState{value: x},
			y:      axisState{value: y},
			lastTS: timestamp,
		}
		return x, y
	}

	if timestamp <= ps.lastTS {
		// degenerate interval, return last values unchanged
		return ps.x.value, ps.y.value
	}

	dt := math.Max(timestamp-ps.lastTS, minTimeDelta)

	xHat := s.filterAxis(&ps.x, x, dt)
	yHat := s.filterAxis(&ps.y, y, dt)
	ps.lastTS = timestamp

	return xHat, yHat
}

// Smooth returns a copy of the pose with every keypoint position passed
// through its dedicated filter.  Names, scores, and the timestamp carry
// over unchanged.
func (s *PoseSmoother) Smooth(p pose.PersonPose) pose.PersonPose {

	out := pose.PersonPose{
		Timestamp: p.Timestamp,
		Points:    make([]pose.Keypoint, len(p.Points)),
	}

	for i, kp := range p.Points {
		x, y := s.Update(kp.Name, kp.X, kp.Y, p.Timestamp)
		out.Points[i] = pose.Keypoint{
			Name:  kp.Name,
			X:     x,
			Y:     y,
			Score: kp.Score,
		}
	}

	return out
}

// filterAxis advances one axis of the one-Euro recurrence.  The raw
// derivative is smoothed with the fixed derivative cutoff, then the position
// cutoff adapts to the estimated speed before the position itself is
// smoothed.
func (s *PoseSmoother) filterAxis(a *axisState, raw, dt float64) float64 {

	dx := (raw - a.value) / dt
	dAlpha := smoothingFactor(dt, s.params.DCutoff)
	dxHat := dAlpha*dx + (1-dAlpha)*a.deriv

	cutoff := s.params.MinCutoff + s.params.Beta*math.Abs(dxHat)
	alpha := smoothingFactor(dt, cutoff)
	xHat := alpha*raw + (1-alpha)*a.value

	a.value = xHat
	a.deriv = dxHat

	return xHat
}

// smoothingFactor computes the exponential smoothing coefficient for the
// given interval and cutoff frequency
func smoothingFactor(dt, cutoff float64) float64 {
	if cutoff < minCutoffFloor {
		cutoff = minCutoffFloor
	}
	tau := 1.0 / (2.0 * math.Pi * cutoff)
	return dt / (dt + tau)
}
