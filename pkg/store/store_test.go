package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
	"github.com/teslashibe/go-eyeguard/pkg/risk"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "eyeguard.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i := 0; i < 5; i++ {
		snap := Snapshot{
			SessionID:   "sess",
			At:          base.Add(time.Duration(i) * time.Minute),
			BlinkRate:   10 + i,
			MeanRedness: 0.5,
			RiskScore:   0.25 * float64(i),
			RiskLevel:   "Low",
			StrainIndex: i,
		}
		if err := s.Record(ctx, snap); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	want := []Snapshot{
		{SessionID: "sess", At: base.Add(4 * time.Minute), BlinkRate: 14, MeanRedness: 0.5, RiskScore: 1, RiskLevel: "Low", StrainIndex: 4},
		{SessionID: "sess", At: base.Add(3 * time.Minute), BlinkRate: 13, MeanRedness: 0.5, RiskScore: 0.75, RiskLevel: "Low", StrainIndex: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}

	if n, err := s.Count(ctx); err != nil || n != 5 {
		t.Errorf("Count() = %d, %v; want 5", n, err)
	}

	all, err := s.Recent(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Errorf("Recent(0) = %d rows, %v; want 5", len(all), err)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eyeguard.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Record(ctx, Snapshot{SessionID: "a", At: time.Now(), RiskLevel: "Low"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestStore_Closed(t *testing.T) {
	s := openTemp(t)
	s.Close()

	if err := s.Record(context.Background(), Snapshot{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Record() err = %v, want ErrClosed", err)
	}
	if _, err := s.Recent(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent() err = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestFromMetrics(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	m := pipeline.Metrics{
		SessionID:    "s1",
		Timestamp:    at,
		BlinkRate:    9,
		Blinks:       40,
		PostureScore: 88,
		DistanceCM:   55.5,
		Brightness:   120,
		RiskScore:    0.8,
		RiskLevel:    risk.Medium,
		StrainIndex:  40,
	}

	got := FromMetrics(m, 0.61)
	want := Snapshot{
		SessionID:    "s1",
		At:           at,
		BlinkRate:    9,
		Blinks:       40,
		MeanRedness:  0.61,
		PostureScore: 88,
		DistanceCM:   55.5,
		Brightness:   120,
		RiskScore:    0.8,
		RiskLevel:    "Medium",
		StrainIndex:  40,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromMetrics() mismatch (-want +got):\n%s", diff)
	}
}
