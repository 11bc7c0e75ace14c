/*
shotform analyses a basketball shooting motion from 2D body keypoint
detections.  It takes the noisy per-frame output of an external pose
estimation model and produces temporally stable keypoint trajectories and a
reproducible 0-100 biomechanical score with lower body, upper body, and
balance sub-scores.

The pipeline per frame is: subject selection among detected people,
adaptive smoothing of keypoint coordinates, and instantaneous kinematic
measurement.  Once a clip completes, the release frame is located and the
clip level feature vector is scored against configurable rules.

See the cmd subdirectory for the streaming daemon and the offline clip
scorer.
*/
package shotform
