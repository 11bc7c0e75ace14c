// Package config loads the daemon configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the daemon runtime settings.
type Config struct {
	// Port is the HTTP listen port for the websocket endpoint
	Port int
	// ModelPath is the ONNX pose model file
	ModelPath string
	// VideoSource is a camera device id or video file path
	VideoSource string
	// ClipPath replays a recorded keypoint clip instead of live video
	ClipPath string
	// DBPath is the sqlite score history database file
	DBPath string
	// MinConfidence overrides the keypoint confidence threshold
	MinConfidence float64
}

// Load reads the configuration from the environment.  A .env file in the
// working directory is applied first when present.
func Load() *Config {

	// missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		ModelPath:     getEnv("MODEL_PATH", "yolov8n-pose.onnx"),
		VideoSource:   getEnv("VIDEO_SOURCE", "0"),
		ClipPath:      getEnv("CLIP_PATH", ""),
		DBPath:        getEnv("DB_PATH", "shotform.db"),
		MinConfidence: getEnvAsFloat("MIN_CONFIDENCE", 0.15),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
