package selector

import (
	"testing"

	"github.com/courtvision/shotform/pose"
)

// person builds a candidate from corner coordinates with uniform keypoint
// confidence
func person(minX, minY, maxX, maxY, conf float64) pose.PersonPose {
	return pose.PersonPose{
		Points: []pose.Keypoint{
			{Name: pose.LeftShoulder, X: minX, Y: minY, Score: conf},
			{Name: pose.RightShoulder, X: maxX, Y: minY, Score: conf},
			{Name: pose.LeftAnkle, X: minX, Y: maxY, Score: conf},
			{Name: pose.RightAnkle, X: maxX, Y: maxY, Score: conf},
		},
	}
}

func TestSelectEmpty(t *testing.T) {

	s := NewSelector(DefaultParams())

	if _, ok := s.Select(nil, 640, 480); ok {
		t.Error("expected no selection from empty input")
	}
}

// TestSelectSoleCandidate verifies a single candidate is returned unchanged
// regardless of frame dimensions
func TestSelectSoleCandidate(t *testing.T) {

	s := NewSelector(DefaultParams())
	candidate := person(10, 10, 20, 20, 0.9)

	tests := []struct {
		width  int
		height int
	}{
		{640, 480},
		{1920, 1080},
		{0, 0},
		{1, 1},
	}

	for _, tc := range tests {
		got, ok := s.Select([]pose.PersonPose{candidate}, tc.width, tc.height)
		if !ok {
			t.Fatalf("sole candidate rejected at %dx%d", tc.width, tc.height)
		}
		if len(got.Points) != len(candidate.Points) {
			t.Errorf("candidate modified at %dx%d", tc.width, tc.height)
		}
	}
}

func TestSelectLargerSubjectWins(t *testing.T) {

	s := NewSelector(DefaultParams())

	background := person(300, 50, 340, 150, 0.9)
	foreground := person(200, 100, 440, 470, 0.9)

	got, ok := s.Select([]pose.PersonPose{background, foreground}, 640, 480)
	if !ok {
		t.Fatal("no subject selected")
	}

	if kp, _ := got.Point(pose.LeftShoulder); kp.X != 200 {
		t.Errorf("expected foreground subject, got candidate at x=%f", kp.X)
	}
}

func TestSelectCenteredSubjectWins(t *testing.T) {

	s := NewSelector(DefaultParams())

	// identical size and height, one centered and one at the frame edge
	edge := person(0, 100, 100, 400, 0.9)
	centered := person(270, 100, 370, 400, 0.9)

	got, ok := s.Select([]pose.PersonPose{edge, centered}, 640, 480)
	if !ok {
		t.Fatal("no subject selected")
	}

	if kp, _ := got.Point(pose.LeftShoulder); kp.X != 270 {
		t.Errorf("expected centered subject, got candidate at x=%f", kp.X)
	}
}

// TestSelectDiscardsInvisibleCandidates verifies candidates whose keypoints
// are all below the visibility threshold are never selected
func TestSelectDiscardsInvisibleCandidates(t *testing.T) {

	s := NewSelector(DefaultParams())

	invisible := person(100, 100, 400, 400, 0.05)

	if _, ok := s.Select([]pose.PersonPose{invisible, invisible}, 640, 480); ok {
		t.Error("selected a candidate with no qualifying keypoints")
	}
}

// TestSelectTieFirstWins verifies input order breaks exact score ties
func TestSelectTieFirstWins(t *testing.T) {

	s := NewSelector(DefaultParams())

	first := person(100, 100, 200, 400, 0.9)
	second := person(100, 100, 200, 400, 0.9)
	first.Points[0].Name = pose.Nose // marker, same geometry

	got, ok := s.Select([]pose.PersonPose{first, second}, 300, 480)
	if !ok {
		t.Fatal("no subject selected")
	}

	if _, found := got.Point(pose.Nose); !found {
		t.Error("tie not broken by input order")
	}
}

func TestSelectMixedVisibility(t *testing.T) {

	s := NewSelector(DefaultParams())

	// low confidence keypoints on the big candidate do not qualify,
	// leaving only a small visible box
	dim := person(0, 0, 600, 450, 0.1)
	clear := person(250, 200, 350, 460, 0.8)

	got, ok := s.Select([]pose.PersonPose{dim, clear}, 640, 480)
	if !ok {
		t.Fatal("no subject selected")
	}

	if kp, _ := got.Point(pose.LeftShoulder); kp.X != 250 {
		t.Errorf("expected the visible subject, got candidate at x=%f", kp.X)
	}
}
