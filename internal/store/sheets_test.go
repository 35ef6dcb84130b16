package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type fakeSheetAPI struct {
	matches [][]string
	players [][]string

	appendCalls   []int // row count per successful append
	clearCalls    int
	deletedRows   []int64
	quotaFailures int // appendRows fails this many times before succeeding
}

func (f *fakeSheetAPI) readRange(ctx context.Context, rng string) ([][]string, error) {
	if rng == playersRange {
		return f.players, nil
	}
	return f.matches, nil
}

func (f *fakeSheetAPI) appendRows(ctx context.Context, rng string, rows [][]string) error {
	if f.quotaFailures > 0 {
		f.quotaFailures--
		return fmt.Errorf("%w: provider 429", ErrQuotaExceeded)
	}
	f.appendCalls = append(f.appendCalls, len(rows))
	f.matches = append(f.matches, rows...)
	return nil
}

func (f *fakeSheetAPI) clearRange(ctx context.Context, rng string) error {
	f.clearCalls++
	f.matches = nil
	return nil
}

func (f *fakeSheetAPI) deleteRow(ctx context.Context, sheet string, rowIndex int64) error {
	f.deletedRows = append(f.deletedRows, rowIndex)
	return nil
}

func newTestSheetStore(api *fakeSheetAPI) *SheetStore {
	s := newSheetStore(api, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	s.sleep = func(time.Duration) {}
	return s
}

func someRecords(n int) []domain.MatchRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]domain.MatchRecord, n)
	for i := range records {
		records[i] = domain.MatchRecord{
			PlayerTag:   "#AAA",
			BattleTime:  base.Add(time.Duration(i) * time.Minute),
			EventMode:   "gemGrab",
			EventMap:    "Hard Rock Mine",
			BrawlerName: "SHELLY",
			Result:      "victory",
		}
	}
	return records
}

func TestAppendChunksAgainstQuota(t *testing.T) {
	api := &fakeSheetAPI{}
	s := newTestSheetStore(api)

	if err := s.Append(context.Background(), someRecords(130)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(api.appendCalls) != 3 {
		t.Fatalf("append calls = %d, want 3 for 130 records at batch size 50", len(api.appendCalls))
	}
	wantSizes := []int{50, 50, 30}
	for i, n := range api.appendCalls {
		if n != wantSizes[i] {
			t.Errorf("call %d wrote %d rows, want %d", i, n, wantSizes[i])
		}
	}
}

func TestAppendEmptyIsNoCall(t *testing.T) {
	api := &fakeSheetAPI{}
	s := newTestSheetStore(api)

	if err := s.Append(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.appendCalls) != 0 {
		t.Errorf("append calls = %d, want 0", len(api.appendCalls))
	}
}

func TestWriteCoolsDownOnQuotaAndResumes(t *testing.T) {
	api := &fakeSheetAPI{quotaFailures: 2}
	s := newTestSheetStore(api)

	var pauses int
	s.sleep = func(d time.Duration) {
		pauses++
		if d != s.cooldown {
			t.Errorf("cooldown = %v, want %v", d, s.cooldown)
		}
	}

	if err := s.Append(context.Background(), someRecords(10)); err != nil {
		t.Fatalf("quota exhaustion must be absorbed, got: %v", err)
	}
	if pauses != 2 {
		t.Errorf("pauses = %d, want 2", pauses)
	}
	if len(api.appendCalls) != 1 {
		t.Errorf("successful append calls = %d, want 1", len(api.appendCalls))
	}
}

func TestReadAllSkipsMalformedRows(t *testing.T) {
	api := &fakeSheetAPI{matches: [][]string{
		{"#AAA", "20250101T120000.000Z", "gemGrab", "Hard Rock Mine", "SHELLY", "victory", "0"},
		{"#BBB", "not-a-time", "gemGrab", "Hard Rock Mine", "COLT", "victory", "0"},
		{"#CCC"}, // too short
		{"#DDD", "20250101T130000Z", "heist", "Safe Zone", "BULL", "defeat"}, // trailing cell elided
	}}
	s := newTestSheetStore(api)

	records, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("malformed rows must never be fatal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].PlayerTag != "#AAA" || records[1].PlayerTag != "#DDD" {
		t.Errorf("unexpected records: %+v", records)
	}
	if records[1].TrophyChange != 0 {
		t.Errorf("elided trophy cell should default to 0, got %d", records[1].TrophyChange)
	}
}

func TestOverwriteClearsThenRewrites(t *testing.T) {
	api := &fakeSheetAPI{matches: [][]string{
		{"#OLD", "20240101T000000.000Z", "", "Old Map", "CROW", "defeat", "0"},
	}}
	s := newTestSheetStore(api)

	if err := s.Overwrite(context.Background(), someRecords(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.clearCalls != 1 {
		t.Errorf("clear calls = %d, want 1", api.clearCalls)
	}
	if len(api.matches) != 3 {
		t.Errorf("store rows = %d, want 3", len(api.matches))
	}
}

func TestDeleteAtSkipsHeader(t *testing.T) {
	api := &fakeSheetAPI{}
	s := newTestSheetStore(api)

	if err := s.DeleteAt(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.deletedRows) != 1 || api.deletedRows[0] != 1 {
		t.Errorf("deleted grid rows = %v, want [1]", api.deletedRows)
	}

	if err := s.DeleteAt(context.Background(), -1); err == nil {
		t.Error("expected error for negative position")
	}
}

func TestPlayersRoster(t *testing.T) {
	api := &fakeSheetAPI{players: [][]string{
		{"#abc123"},
		{""},
		{},
		{"  def456 "},
	}}
	s := newTestSheetStore(api)

	players, err := s.Players(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	if players[0].Tag != "#ABC123" || players[1].Tag != "#DEF456" {
		t.Errorf("roster not canonicalized: %+v", players)
	}
}

func TestRowCodecRoundTrip(t *testing.T) {
	rec := domain.MatchRecord{
		PlayerTag:   "#ABC123",
		BattleTime:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		EventMode:   "gemGrab",
		EventMap:    "Hard Rock Mine",
		BrawlerName: "SHELLY",
		Result:      "victory",
	}

	row := encodeRow(rec)
	if row[1] != "20250101T120000.000Z" {
		t.Errorf("encoded battle time = %q", row[1])
	}

	back, err := decodeRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != rec {
		t.Errorf("round trip: got %+v, want %+v", back, rec)
	}
}
