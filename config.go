package shotform

import (
	"github.com/courtvision/shotform/kinematics"
	"github.com/courtvision/shotform/release"
	"github.com/courtvision/shotform/scoring"
	"github.com/courtvision/shotform/selector"
	"github.com/courtvision/shotform/smoother"
)

// Config is the complete analysis configuration.  Defaults are applied once
// by DefaultConfig, the pipeline behaves identically whether values are
// supplied explicitly or left at their documented defaults.
type Config struct {
	// Smoother holds the adaptive filter parameters
	Smoother smoother.Params
	// Selector holds the subject selection parameters
	Selector selector.Params
	// Release holds the release detection thresholds
	Release release.Params
	// Rules holds the scoring targets, tolerances, and bucket weights
	Rules scoring.Config
	// MinConfidence is the keypoint confidence threshold for kinematic
	// measurements
	MinConfidence float64
}

// DefaultConfig returns the analysis configuration with every component at
// its documented defaults.
func DefaultConfig() Config {
	return Config{
		Smoother:      smoother.DefaultParams(),
		Selector:      selector.DefaultParams(),
		Release:       release.DefaultParams(),
		Rules:         scoring.DefaultConfig(),
		MinConfidence: kinematics.DefaultMinConfidence,
	}
}
