package shotform

import (
	"github.com/courtvision/shotform/kinematics"
	"github.com/courtvision/shotform/pose"
	"github.com/courtvision/shotform/release"
	"github.com/courtvision/shotform/scoring"
	"github.com/courtvision/shotform/selector"
	"github.com/courtvision/shotform/smoother"
)

// PoseSource yields detection frames from a pose estimation backend.  The
// pipeline never inspects the concrete backend, implementations are
// selected at startup and report io.EOF when the stream ends.
type PoseSource interface {
	Next() (pose.MultiPersonFrame, error)
}

// FrameFeatures are the instantaneous measurements of a single smoothed
// pose, used for live feedback while a clip records.  Nil fields could not
// be measured in this frame.
type FrameFeatures struct {
	// KneeFlexion is the hip-knee-ankle angle in degrees
	KneeFlexion *float64 `json:"kneeFlexion,omitempty"`
	// ElbowAngle is the shoulder-elbow-wrist angle in degrees
	ElbowAngle *float64 `json:"elbowAngle,omitempty"`
	// TorsoAlignment is the hip line versus ankle line angle in degrees
	TorsoAlignment *float64 `json:"torsoAlignment,omitempty"`
	// LateralOffset is the center of mass displacement as a percentage
	// of body scale
	LateralOffset *float64 `json:"lateralOffset,omitempty"`
}

// Session runs the analysis pipeline for one video clip.  It owns the
// smoothing filter state and the collected samples, both reset when a new
// clip starts.  A Session is frame synchronous and not safe for concurrent
// use.
type Session struct {
	cfg       Config
	smoother  *smoother.PoseSmoother
	selector  *selector.Selector
	extractor kinematics.Extractor
	engine    *scoring.Engine
	samples   []pose.Sample
}

// NewSession returns a Session with fresh filter state.
func NewSession(cfg Config) *Session {
	return &Session{
		cfg:       cfg,
		smoother:  smoother.NewPoseSmoother(cfg.Smoother),
		selector:  selector.NewSelector(cfg.Selector),
		extractor: kinematics.Extractor{MinConfidence: cfg.MinConfidence},
		engine:    scoring.NewEngine(cfg.Rules),
	}
}

// Reset discards the collected clip and all filter state.  Must be called
// before analysing a new video, reusing filter state across unrelated
// clips biases the first frames toward the previous trajectory.
func (s *Session) Reset() {
	s.smoother.Reset()
	s.samples = nil
}

// ProcessFrame runs one detection frame through subject selection and
// smoothing, collects the result into the clip, and returns the smoothed
// pose for live use.  Returns false when no subject qualifies in the
// frame, which leaves all state untouched.
func (s *Session) ProcessFrame(frame pose.MultiPersonFrame) (pose.PersonPose, bool) {

	subject, ok := s.selector.Select(frame.Persons, frame.Width, frame.Height)
	if !ok {
		return pose.PersonPose{}, false
	}

	subject.Timestamp = frame.Timestamp
	smoothed := s.smoother.Smooth(subject)

	s.samples = append(s.samples, pose.Sample{
		Timestamp: frame.Timestamp,
		Pose:      smoothed,
	})

	return smoothed, true
}

// Samples returns the smoothed clip collected so far.
func (s *Session) Samples() []pose.Sample {
	return s.samples
}

// FrameFeatures computes the instantaneous measurements of one pose.
func (s *Session) FrameFeatures(p pose.PersonPose) FrameFeatures {

	var out FrameFeatures

	if v, ok := s.extractor.BestKneeFlexion(p); ok {
		out.KneeFlexion = &v
	}
	if v, _, ok := s.extractor.ElbowAngle(p); ok {
		out.ElbowAngle = &v
	}
	if v, ok := s.extractor.TorsoFootAlignment(p); ok {
		out.TorsoAlignment = &v
	}
	if v, ok := s.extractor.LateralOffset(p); ok {
		out.LateralOffset = &v
	}

	return out
}

// Features derives the clip level feature vector from the collected
// samples.  Measurements that cannot be made are absent, they score the
// configured floor rather than zero.
func (s *Session) Features() scoring.Features {

	var f scoring.Features

	if v, ok := s.minKneeFlexion(); ok {
		f.Squat = &v
	}

	releaseIdx, released := release.Detect(s.samples, s.cfg.Release)

	if released {
		releasePose := s.samples[releaseIdx].Pose

		if v, ok := s.extractor.BestKneeFlexion(releasePose); ok {
			f.KneeExt = &v
		}
		if v, _, ok := s.extractor.ElbowAngle(releasePose); ok {
			f.ReleaseAngle = &v
		}
		if v, ok := s.armPower(releaseIdx); ok {
			f.ArmPower = &v
		}
		if v, ok := s.followThrough(releaseIdx); ok {
			f.Follow = &v
		}
	}

	stability := release.ClipStability(s.samples, s.cfg.MinConfidence)
	f.ElbowTight = stability.ElbowCompactness
	f.Center = stability.CenterSway
	f.Align = stability.FinalAlignment

	return f
}

// Score runs release detection and scoring over the collected clip.  It is
// idempotent and safe to call repeatedly, for example after a rule
// configuration change the clip can be re-scored without re-processing
// frames.
func (s *Session) Score() scoring.ScoreResult {
	return s.engine.Score(s.Features())
}

// minKneeFlexion finds the deepest knee bend across the clip
func (s *Session) minKneeFlexion() (float64, bool) {

	found := false
	min := 0.0

	for _, sample := range s.samples {
		v, ok := s.extractor.BestKneeFlexion(sample.Pose)
		if !ok {
			continue
		}
		if !found || v < min {
			min = v
			found = true
		}
	}

	return min, found
}

// armPower finds the peak elbow extension speed in degrees per second over
// consecutive usable observations up to and including the release frame
func (s *Session) armPower(releaseIdx int) (float64, bool) {

	found := false
	peak := 0.0
	havePrev := false
	prevAngle := 0.0
	prevTS := 0.0

	for i := 0; i <= releaseIdx && i < len(s.samples); i++ {

		angle, _, ok := s.extractor.ElbowAngle(s.samples[i].Pose)
		if !ok {
			continue
		}

		ts := s.samples[i].Timestamp

		if havePrev && ts > prevTS {
			speed := (angle - prevAngle) / (ts - prevTS)
			if speed > 0 && (!found || speed > peak) {
				peak = speed
				found = true
			}
		}

		prevAngle = angle
		prevTS = ts
		havePrev = true
	}

	return peak, found
}

// followThrough measures how long the shooting wrist stays above shoulder
// height after release
func (s *Session) followThrough(releaseIdx int) (float64, bool) {

	releasePose := s.samples[releaseIdx].Pose

	_, side, ok := s.extractor.ElbowAngle(releasePose)
	if !ok {
		return 0, false
	}

	wristName := pose.RightWrist
	shoulderName := pose.RightShoulder
	if side == kinematics.Left {
		wristName = pose.LeftWrist
		shoulderName = pose.LeftShoulder
	}

	releaseTS := s.samples[releaseIdx].Timestamp
	holdUntil := releaseTS
	measured := false

	for i := releaseIdx; i < len(s.samples); i++ {

		p := s.samples[i].Pose

		wrist, ok := p.Point(wristName)
		if !ok || wrist.Score < s.cfg.MinConfidence {
			continue
		}
		shoulder, ok := p.Point(shoulderName)
		if !ok || shoulder.Score < s.cfg.MinConfidence {
			continue
		}

		measured = true

		// image y grows downward, above means smaller y
		if wrist.Y > shoulder.Y {
			break
		}

		holdUntil = s.samples[i].Timestamp
	}

	if !measured {
		return 0, false
	}

	return holdUntil - releaseTS, true
}
