// Package selector chooses the primary subject among the people detected in
// a frame.  Multi-person frames are common courtside, teammates and
// spectators appear in the background, so the shooter is picked with a
// weighted heuristic favouring large, low-in-frame, centered, cleanly
// detected candidates.
package selector

import (
	"math"

	"github.com/courtvision/shotform/pose"
)

// Relative weights combining the candidate cues into one ranking score.
// Fixed constants, not auto-tuned.
const (
	// areaWeight rewards larger (closer to camera) subjects, applied to
	// bounding box area normalized by frame area
	areaWeight = 1.0
	// bottomWeight rewards subjects whose lowest keypoint sits lower in
	// the frame, foreground subjects stand on lower ground lines
	bottomWeight = 0.5
	// centerWeight rewards horizontally centered subjects
	centerWeight = 0.3
	// confWeight gives a small edge to cleaner detections
	confWeight = 0.1
)

// Params configures candidate qualification.
type Params struct {
	// MinVisibility is the minimum keypoint confidence for a keypoint to
	// count toward a candidate's ranking score.  Candidates with no
	// qualifying keypoints are discarded
	MinVisibility float64
}

// DefaultParams returns selection parameters with a minimum keypoint
// visibility of 0.15.
func DefaultParams() Params {
	return Params{
		MinVisibility: 0.15,
	}
}

// Selector ranks detected people and picks the primary subject.
type Selector struct {
	params Params
}

// NewSelector returns a Selector using the given parameters.
func NewSelector(p Params) *Selector {
	return &Selector{params: p}
}

// Select returns the primary subject among the candidates, or false when no
// candidate qualifies.  A sole candidate is returned as-is.  On exact score
// equality the earlier candidate wins.
func (s *Selector) Select(persons []pose.PersonPose, frameWidth, frameHeight int) (pose.PersonPose, bool) {

	if len(persons) == 0 {
		return pose.PersonPose{}, false
	}

	if len(persons) == 1 {
		return persons[0], true
	}

	bestIdx := -1
	bestScore := math.Inf(-1)

	for i, person := range persons {
		score, ok := s.rank(person, frameWidth, frameHeight)
		if !ok {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return pose.PersonPose{}, false
	}

	return persons[bestIdx], true
}

// rank computes the weighted ranking score for one candidate from its
// qualifying keypoints.  Returns false when no keypoint passes the
// visibility threshold.
func (s *Selector) rank(person pose.PersonPose, frameWidth, frameHeight int) (float64, bool) {

	minX := math.Inf(1)
	minY := math.Inf(1)
	maxX := math.Inf(-1)
	maxY := math.Inf(-1)
	confSum := 0.0
	count := 0

	for _, kp := range person.Points {
		if kp.Score < s.params.MinVisibility {
			continue
		}
		minX = math.Min(minX, kp.X)
		minY = math.Min(minY, kp.Y)
		maxX = math.Max(maxX, kp.X)
		maxY = math.Max(maxY, kp.Y)
		confSum += kp.Score
		count++
	}

	if count == 0 {
		return 0, false
	}

	frameW := float64(frameWidth)
	frameH := float64(frameHeight)
	frameArea := frameW * frameH

	if frameArea <= 0 {
		frameW, frameH = 1, 1
		frameArea = 1
	}

	area := (maxX - minX) * (maxY - minY)
	centerX := (minX + maxX) / 2
	centerDist := math.Abs(centerX-frameW/2) / (frameW / 2)

	score := areaWeight*(area/frameArea) +
		bottomWeight*(maxY/frameH) +
		centerWeight*(1-centerDist) +
		confWeight*(confSum/float64(count))

	return score, true
}
