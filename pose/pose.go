package pose

// Name identifies a body landmark reported by a pose detection backend.
// The recognized set follows the COCO keypoint convention with some common
// extensions (heels, foot indices).  Unrecognized names are carried through
// untouched and simply ignored by feature extraction.
type Name string

// COCO body landmark names
const (
	Nose          Name = "nose"
	LeftEye       Name = "left_eye"
	RightEye      Name = "right_eye"
	LeftEar       Name = "left_ear"
	RightEar      Name = "right_ear"
	LeftShoulder  Name = "left_shoulder"
	RightShoulder Name = "right_shoulder"
	LeftElbow     Name = "left_elbow"
	RightElbow    Name = "right_elbow"
	LeftWrist     Name = "left_wrist"
	RightWrist    Name = "right_wrist"
	LeftHip       Name = "left_hip"
	RightHip      Name = "right_hip"
	LeftKnee      Name = "left_knee"
	RightKnee     Name = "right_knee"
	LeftAnkle     Name = "left_ankle"
	RightAnkle    Name = "right_ankle"
)

// Extended landmark names emitted by some detection models
const (
	LeftHeel       Name = "left_heel"
	RightHeel      Name = "right_heel"
	LeftFootIndex  Name = "left_foot_index"
	RightFootIndex Name = "right_foot_index"
)

// CocoNames lists the 17 COCO keypoint names in model output order.  Index
// positions match the keypoint channels of COCO trained pose models.
var CocoNames = [17]Name{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// Keypoint is a single named landmark detected in one frame.  Coordinates
// are in source image pixels, Score is the detector confidence in [0,1].
type Keypoint struct {
	Name  Name    `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// PersonPose is the set of keypoints detected for one person in one frame.
// Names are unique within a person.
type PersonPose struct {
	// Timestamp is the frame capture time in seconds
	Timestamp float64 `json:"timestamp"`
	// Points are the detected keypoints
	Points []Keypoint `json:"points"`
}

// Point returns the keypoint with the given name, or false when the
// detector did not report it for this person.
func (p PersonPose) Point(name Name) (Keypoint, bool) {
	for _, kp := range p.Points {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// MultiPersonFrame is the raw detector output for one video frame, zero or
// more candidate people plus the frame dimensions and capture timestamp.
type MultiPersonFrame struct {
	// Timestamp is the frame capture time in seconds
	Timestamp float64 `json:"timestamp"`
	// Width is the source frame width in pixels
	Width int `json:"width"`
	// Height is the source frame height in pixels
	Height int `json:"height"`
	// Persons are the candidate people detected in the frame
	Persons []PersonPose `json:"persons"`
}

// Sample is one smoothed, time-ordered entry of an analysis clip.
type Sample struct {
	Timestamp float64    `json:"timestamp"`
	Pose      PersonPose `json:"pose"`
}
