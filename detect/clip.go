package detect

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/courtvision/shotform/pose"
)

// clipFile is the JSON schema of a recorded keypoint clip
type clipFile struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Frames []clipFrame `json:"frames"`
}

// clipFrame is one recorded frame of detections
type clipFrame struct {
	Timestamp float64           `json:"timestamp"`
	Persons   []pose.PersonPose `json:"persons"`
}

// ClipReader replays a recorded keypoint clip as a pose source.  Recorded
// clips make offline scoring reproducible and keep the pipeline testable
// without a model or camera.
type ClipReader struct {
	width  int
	height int
	frames []clipFrame
	next   int
}

// NewClipReader parses a recorded clip from the reader.
func NewClipReader(r io.Reader) (*ClipReader, error) {

	var clip clipFile

	if err := json.NewDecoder(r).Decode(&clip); err != nil {
		return nil, fmt.Errorf("failed to parse clip: %w", err)
	}

	return &ClipReader{
		width:  clip.Width,
		height: clip.Height,
		frames: clip.Frames,
	}, nil
}

// OpenClip parses a recorded clip from a file.
func OpenClip(path string) (*ClipReader, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip file: %w", err)
	}
	defer f.Close()

	return NewClipReader(f)
}

// Next returns the next recorded frame, or io.EOF once the clip is
// exhausted.
func (c *ClipReader) Next() (pose.MultiPersonFrame, error) {

	if c.next >= len(c.frames) {
		return pose.MultiPersonFrame{}, io.EOF
	}

	frame := c.frames[c.next]
	c.next++

	persons := make([]pose.PersonPose, len(frame.Persons))

	for i, p := range frame.Persons {
		persons[i] = p
		persons[i].Timestamp = frame.Timestamp
	}

	return pose.MultiPersonFrame{
		Timestamp: frame.Timestamp,
		Width:     c.width,
		Height:    c.height,
		Persons:   persons,
	}, nil
}

// Rewind restarts replay from the first frame.
func (c *ClipReader) Rewind() {
	c.next = 0
}

// Len returns the number of recorded frames.
func (c *ClipReader) Len() int {
	return len(c.frames)
}
