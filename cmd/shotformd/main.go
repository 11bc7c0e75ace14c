// shotformd runs the shooting form analysis pipeline over live video or a
// recorded keypoint clip, broadcasting smoothed poses and scores to
// websocket viewers and persisting results to the score history database.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mdobak/go-xerrors"

	"github.com/courtvision/shotform"
	"github.com/courtvision/shotform/detect"
	"github.com/courtvision/shotform/internal/config"
	"github.com/courtvision/shotform/internal/hub"
	"github.com/courtvision/shotform/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open score store", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
	defer db.Close()

	source, closeSource, err := openSource(cfg)
	if err != nil {
		logger.Error("failed to open pose source", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
	defer closeSource()

	h := hub.New(logger)
	go h.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}
		h.Register(conn)
		go func() {
			// drain control frames until the viewer goes away
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.Unregister(conn)
					return
				}
			}
		}()
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("listening", slog.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error("http server failed", slog.Any("error", xerrors.New(err)))
			os.Exit(1)
		}
	}()

	analysisCfg := shotform.DefaultConfig()
	analysisCfg.MinConfidence = cfg.MinConfidence

	if err := run(source, analysisCfg, h, db, logger); err != nil {
		logger.Error("analysis failed", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
}

// openSource picks the pose backend: a recorded clip when configured,
// otherwise live video through the DNN pose model.
func openSource(cfg *config.Config) (shotform.PoseSource, func(), error) {

	if cfg.ClipPath != "" {
		clip, err := detect.OpenClip(cfg.ClipPath)
		if err != nil {
			return nil, nil, err
		}
		return clip, func() {}, nil
	}

	det, err := detect.NewYOLOv8Pose(cfg.ModelPath, detect.DefaultParams())
	if err != nil {
		return nil, nil, err
	}

	video, err := detect.NewVideoSource(cfg.VideoSource, det)
	if err != nil {
		det.Close()
		return nil, nil, err
	}

	return video, func() {
		video.Close()
		det.Close()
	}, nil
}

// run drives the frame loop to completion and persists the final score.
func run(source shotform.PoseSource, cfg shotform.Config, h *hub.Hub,
	db *store.Store, logger *slog.Logger) error {

	session := shotform.NewSession(cfg)
	startedAt := time.Now()
	frames := 0

	for {
		frame, err := source.Next()

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("pose source failed: %w", err)
		}

		frames++

		smoothed, ok := session.ProcessFrame(frame)
		if !ok {
			continue
		}

		h.Send("pose", map[string]any{
			"pose":     smoothed,
			"features": session.FrameFeatures(smoothed),
		})
	}

	result := session.Score()
	h.Send("score", result)

	sessionID := startedAt.UTC().Format("20060102T150405")

	rowID, err := db.SaveScore(sessionID, startedAt, result)
	if err != nil {
		return fmt.Errorf("failed to persist score: %w", err)
	}

	logger.Info("session scored",
		slog.String("session", sessionID),
		slog.Int64("row", rowID),
		slog.Int("frames", frames),
		slog.Int("total", result.Total),
	)

	return nil
}
