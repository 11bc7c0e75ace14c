// Package scoring maps the extracted feature vector to a 0-100 shooting
// form score with lower body, upper body, and balance sub-scores.
package scoring

import (
	"fmt"
	"math"
)

// Policy selects how a measured value is compared against a rule's target.
type Policy int

const (
	// Closer scores best when the value lands on the target, falling off
	// linearly toward the tolerance bound
	Closer Policy = iota
	// Bigger scores best once the value meets or exceeds the target
	Bigger
	// Smaller scores best while the value stays at or below the target
	Smaller
)

const (
	// DefaultFloor is the minimum score assigned to an absent or
	// maximally out of tolerance measurement.  A partially correct
	// motion still earns credit
	DefaultFloor = 20
	// DefaultWorstMultiplier bounds the Smaller policy, the score
	// bottoms out once the value reaches target times this multiplier
	DefaultWorstMultiplier = 6
	// minTolerance floors a zero or negative configured tolerance
	minTolerance = 1e-9
)

// Rule holds the target band and policy for one scored feature.
type Rule struct {
	// Target is the ideal measurement value
	Target float64
	// Tolerance is the acceptable deviation band, Closer policy only
	Tolerance float64
	// WorstMultiplier scales the target into the worst bound, Smaller
	// policy only.  Zero means DefaultWorstMultiplier
	WorstMultiplier float64
	// Floor is the minimum score, zero means DefaultFloor
	Floor float64
	// Policy selects the comparison mode
	Policy Policy
	// Unit is appended to the formatted raw value, eg "°" or "%"
	Unit string
}

// Features is the sparse measurement record consumed by the engine.  A nil
// field means the measurement could not be made and scores the rule floor,
// absence is unknown, not bad.
type Features struct {
	// Squat is the deepest knee flexion angle over the clip in degrees
	Squat *float64
	// KneeExt is the knee extension angle at release in degrees
	KneeExt *float64
	// ReleaseAngle is the elbow angle at release in degrees
	ReleaseAngle *float64
	// ArmPower is the peak elbow extension speed in degrees per second
	ArmPower *float64
	// Follow is the follow through hold duration in seconds
	Follow *float64
	// ElbowTight is the elbow lateral path span in body widths
	ElbowTight *float64
	// Center is the hip sway variance in body width units
	Center *float64
	// Align is the final hip to ankle offset in body widths
	Align *float64
}

// BucketWeights are the relative weights combining the three bucket scores
// into the total.
type BucketWeights struct {
	Lower   float64
	Upper   float64
	Balance float64
}

// Config enumerates the rule for every scored feature plus the bucket
// weighting.  Defaults are applied once at construction via DefaultConfig,
// behaviour is identical whether fields are supplied explicitly or left at
// the documented defaults.
type Config struct {
	Squat        Rule
	KneeExt      Rule
	ReleaseAngle Rule
	ArmPower     Rule
	Follow       Rule
	ElbowTight   Rule
	Center       Rule
	Align        Rule

	Weights BucketWeights

	// MissingLabel is the formatted value shown for an absent measurement
	MissingLabel string
}

// DefaultConfig returns the scoring rules with their default targets and
// equal bucket weighting.  The targets are empirically chosen and remain
// configuration so they can be recalibrated without code changes.
func DefaultConfig() Config {
	return Config{
		Squat:        Rule{Target: 110, Tolerance: 25, Policy: Closer, Unit: "°"},
		KneeExt:      Rule{Target: 165, Tolerance: 8, Policy: Closer, Unit: "°"},
		ReleaseAngle: Rule{Target: 172, Tolerance: 12, Policy: Closer, Unit: "°"},
		ArmPower:     Rule{Target: 260, Policy: Bigger, Unit: "°/s"},
		Follow:       Rule{Target: 0.3, Policy: Bigger, Unit: "s"},
		ElbowTight:   Rule{Target: 0.25, WorstMultiplier: 5, Policy: Smaller, Unit: ""},
		Center:       Rule{Target: 0.02, WorstMultiplier: 6, Policy: Smaller, Unit: ""},
		Align:        Rule{Target: 0.05, WorstMultiplier: 5, Policy: Smaller, Unit: ""},
		Weights: BucketWeights{
			Lower:   1,
			Upper:   1,
			Balance: 1,
		},
		MissingLabel: "n/a",
	}
}

// Item is one scored feature, the integer score plus the unit labeled raw
// measurement.
type Item struct {
	Score int    `json:"score"`
	Value string `json:"value"`
}

// LowerResult is the lower body bucket.
type LowerResult struct {
	Score   int  `json:"score"`
	Squat   Item `json:"squat"`
	KneeExt Item `json:"kneeExt"`
}

// UpperResult is the upper body bucket.
type UpperResult struct {
	Score        int  `json:"score"`
	ReleaseAngle Item `json:"releaseAngle"`
	ArmPower     Item `json:"armPower"`
	Follow       Item `json:"follow"`
	ElbowTight   Item `json:"elbowTight"`
}

// BalanceResult is the balance bucket.
type BalanceResult struct {
	Score  int  `json:"score"`
	Center Item `json:"center"`
	Align  Item `json:"align"`
}

// ScoreResult is the complete scored output for one analysis request.  All
// scores are integers in [0,100].
type ScoreResult struct {
	Total   int           `json:"total"`
	Lower   LowerResult   `json:"lower"`
	Upper   UpperResult   `json:"upper"`
	Balance BalanceResult `json:"balance"`
}

// Engine scores feature vectors against an immutable rule configuration.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine for the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Score maps the feature vector to the full score structure.  Scoring is
// pure and idempotent, re-scoring the same features yields an identical
// result.
func (e *Engine) Score(f Features) ScoreResult {

	lower := LowerResult{
		Squat:   e.scoreRule(e.cfg.Squat, f.Squat),
		KneeExt: e.scoreRule(e.cfg.KneeExt, f.KneeExt),
	}
	lower.Score = bucketMean(lower.Squat.Score, lower.KneeExt.Score)

	upper := UpperResult{
		ReleaseAngle: e.scoreRule(e.cfg.ReleaseAngle, f.ReleaseAngle),
		ArmPower:     e.scoreRule(e.cfg.ArmPower, f.ArmPower),
		Follow:       e.scoreRule(e.cfg.Follow, f.Follow),
		ElbowTight:   e.scoreRule(e.cfg.ElbowTight, f.ElbowTight),
	}
	upper.Score = bucketMean(upper.ReleaseAngle.Score, upper.ArmPower.Score,
		upper.Follow.Score, upper.ElbowTight.Score)

	balance := BalanceResult{
		Center: e.scoreRule(e.cfg.Center, f.Center),
		Align:  e.scoreRule(e.cfg.Align, f.Align),
	}
	balance.Score = bucketMean(balance.Center.Score, balance.Align.Score)

	return ScoreResult{
		Total:   e.totalScore(lower.Score, upper.Score, balance.Score),
		Lower:   lower,
		Upper:   upper,
		Balance: balance,
	}
}

// scoreRule scores a single optional measurement against its rule.  The
// raw linear score reaches zero at the rule's outer bound and is then
// clamped into [floor,100].
func (e *Engine) scoreRule(r Rule, value *float64) Item {

	floor := r.Floor
	if floor == 0 {
		floor = DefaultFloor
	}
	floor = math.Max(0, math.Min(100, floor))

	if value == nil {
		return Item{
			Score: int(floor),
			Value: e.cfg.MissingLabel,
		}
	}

	v := *value
	var raw float64

	switch r.Policy {
	case Closer:
		tol := math.Max(r.Tolerance, minTolerance)
		raw = 100 * (1 - math.Abs(v-r.Target)/tol)

	case Bigger:
		if r.Target <= 0 || v >= r.Target {
			raw = 100
		} else {
			raw = 100 * v / r.Target
		}

	case Smaller:
		mult := r.WorstMultiplier
		if mult == 0 {
			mult = DefaultWorstMultiplier
		}
		worst := r.Target * mult
		switch {
		case v <= r.Target:
			raw = 100
		case worst <= r.Target:
			raw = 0
		default:
			raw = 100 * (1 - (v-r.Target)/(worst-r.Target))
		}
	}

	score := math.Round(raw)
	score = math.Max(floor, math.Min(100, score))

	return Item{
		Score: int(score),
		Value: formatValue(v, r.Unit),
	}
}

// totalScore combines the bucket scores with the configured weights.  A
// zero total weight yields zero rather than a division by zero.
func (e *Engine) totalScore(lower, upper, balance int) int {

	w := e.cfg.Weights
	totalWeight := w.Lower + w.Upper + w.Balance

	if totalWeight <= 0 {
		return 0
	}

	weighted := (float64(lower)*w.Lower +
		float64(upper)*w.Upper +
		float64(balance)*w.Balance) / totalWeight

	return clampScore(int(math.Round(weighted)))
}

// bucketMean is the unweighted mean of the item scores rounded to the
// nearest integer
func bucketMean(scores ...int) int {

	if len(scores) == 0 {
		return 0
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}

	return clampScore(int(math.Round(float64(sum) / float64(len(scores)))))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// formatValue renders the raw measurement with its display unit
func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}
