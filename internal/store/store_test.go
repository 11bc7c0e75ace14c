package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/courtvision/shotform/scoring"
)

func testResult() scoring.ScoreResult {
	return scoring.ScoreResult{
		Total: 78,
		Lower: scoring.LowerResult{
			Score:   82,
			Squat:   scoring.Item{Score: 90, Value: "108.50°"},
			KneeExt: scoring.Item{Score: 74, Value: "162.30°"},
		},
		Upper: scoring.UpperResult{
			Score:        76,
			ReleaseAngle: scoring.Item{Score: 88, Value: "170.10°"},
			ArmPower:     scoring.Item{Score: 70, Value: "285.40°/s"},
			Follow:       scoring.Item{Score: 65, Value: "0.27s"},
			ElbowTight:   scoring.Item{Score: 80, Value: "0.21"},
		},
		Balance: scoring.BalanceResult{
			Score:  75,
			Center: scoring.Item{Score: 72, Value: "0.03"},
			Align:  scoring.Item{Score: 78, Value: "0.04°"},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSaveScoreRoundTrip(t *testing.T) {

	s := openTestStore(t)

	startedAt := time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

	rowID, err := s.SaveScore("clip-001", startedAt, testResult())
	if err != nil {
		t.Fatalf("failed to save score: %v", err)
	}
	if rowID == 0 {
		t.Error("expected a non zero row id")
	}

	records, err := s.RecentSessions(10)
	if err != nil {
		t.Fatalf("failed to query sessions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 session, got %d", len(records))
	}

	r := records[0]

	if r.ID != rowID {
		t.Errorf("row id mismatch, got %d, want %d", r.ID, rowID)
	}
	if r.SessionID != "clip-001" {
		t.Errorf("session id mismatch, got %q", r.SessionID)
	}
	if !r.StartedAt.Equal(startedAt) {
		t.Errorf("started at mismatch, got %v, want %v", r.StartedAt, startedAt)
	}
	if r.Total != 78 || r.Lower != 82 || r.Upper != 76 || r.Balance != 75 {
		t.Errorf("summary mismatch: %+v", r)
	}
}

func TestRecentSessionsOrderAndLimit(t *testing.T) {

	s := openTestStore(t)

	base := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if _, err := s.SaveScore(id, base.Add(time.Duration(i)*time.Minute), testResult()); err != nil {
			t.Fatalf("failed to save score %d: %v", i, err)
		}
	}

	records, err := s.RecentSessions(3)
	if err != nil {
		t.Fatalf("failed to query sessions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(records))
	}

	// newest first
	for i, want := range []string{"e", "d", "c"} {
		if records[i].SessionID != want {
			t.Errorf("record %d: got session %q, want %q", i, records[i].SessionID, want)
		}
	}
}

func TestRecentSessionsEmpty(t *testing.T) {

	s := openTestStore(t)

	records, err := s.RecentSessions(10)
	if err != nil {
		t.Fatalf("failed to query sessions: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no sessions, got %d", len(records))
	}
}
