package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/store"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*Server, *store.Memory, *http.ServeMux) {
	t.Helper()
	mem := store.NewMemory()
	cfg := &config.Config{Retention: 30 * 24 * time.Hour}
	srv := New(mem, mem, cfg, zerolog.Nop())
	mux := http.NewServeMux()
	srv.Routes(mux)
	return srv, mem, mux
}

func seed(t *testing.T, mem *store.Memory) {
	t.Helper()
	mem.SetRoster("#AAA", "#BBB")
	err := mem.Append(context.Background(), []domain.MatchRecord{
		{
			PlayerTag:   "#AAA",
			BattleTime:  time.Now().UTC().Add(-time.Hour),
			EventMode:   "gemGrab",
			EventMap:    "Hard Rock Mine",
			BrawlerName: "SHELLY",
			Result:      "victory",
		},
		{
			PlayerTag:   "#BBB",
			BattleTime:  time.Now().UTC().Add(-2 * time.Hour),
			EventMode:   "heist",
			EventMap:    "Safe Zone",
			BrawlerName: "COLT",
			Result:      "defeat",
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestLiveness(t *testing.T) {
	_, _, mux := newTestServer(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Red Panda") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMatchesEndpoint(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Matches []matchJSON `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Errorf("matches = %d, want 2", len(resp.Matches))
	}
}

func TestMatchesEndpointTagFilter(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches?tag=aaa", nil))

	var resp struct {
		Matches []matchJSON `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].PlayerTag != "#AAA" {
		t.Errorf("matches = %+v", resp.Matches)
	}
}

func TestMapReportEndpoint(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/map?tags=%23AAA,%23BBB&map=Hard+Rock+Mine", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Map     string      `json:"map"`
		Entries []usageJSON `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Brawler != "SHELLY" {
		t.Errorf("entries = %+v", resp.Entries)
	}
	if resp.Entries[0].WinRate != 100 {
		t.Errorf("win rate = %v, want 100", resp.Entries[0].WinRate)
	}
}

func TestMapReportRejectsUnknownTag(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/map?tags=%23NOBODY&map=Hard+Rock+Mine", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown player tag") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMapReportRequiresParams(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/map?tags=%23AAA", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing map: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/map?map=Hard+Rock+Mine", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing tags: status = %d, want 400", rec.Code)
	}
}

func TestCounterReportEndpoint(t *testing.T) {
	_, mem, mux := newTestServer(t)
	seed(t, mem)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/counters?tags=%23AAA", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Suggestions []struct {
			Brawler  string   `json:"brawler"`
			Counters []string `json:"counters"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Brawler != "SHELLY" {
		t.Errorf("suggestions = %+v", resp.Suggestions)
	}
	if len(resp.Suggestions[0].Counters) != 3 {
		t.Errorf("counters = %v", resp.Suggestions[0].Counters)
	}
}
