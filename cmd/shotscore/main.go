// shotscore scores a recorded keypoint clip and prints the result as JSON.
//
// Usage:
//
//	shotscore -clip clip.json [-pretty] [-minconf 0.15]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/courtvision/shotform"
	"github.com/courtvision/shotform/detect"
)

func main() {

	clipPath := flag.String("clip", "", "recorded keypoint clip JSON file")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	minConf := flag.Float64("minconf", 0.15, "keypoint confidence threshold")
	flag.Parse()

	if *clipPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	clip, err := detect.OpenClip(*clipPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shotscore: %v\n", err)
		os.Exit(1)
	}

	cfg := shotform.DefaultConfig()
	cfg.MinConfidence = *minConf

	session := shotform.NewSession(cfg)

	for {
		frame, err := clip.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "shotscore: %v\n", err)
			os.Exit(1)
		}
		session.ProcessFrame(frame)
	}

	result := session.Score()

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "shotscore: %v\n", err)
		os.Exit(1)
	}
}
