package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/constants"
	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/report"
	"brawl-tracker/internal/store"

	"github.com/rs/zerolog"
)

// Server is the read surface over the store: liveness, raw matches and the
// aggregate reports the chat front end renders. It only ever reads; stale
// reads during an in-flight sync are acceptable, so no lock is taken.
type Server struct {
	store     store.Store
	roster    store.Roster
	logger    zerolog.Logger
	retention time.Duration
}

func New(st store.Store, roster store.Roster, cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{
		store:     st,
		roster:    roster,
		logger:    logger,
		retention: cfg.Retention,
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /api/matches", s.handleMatches)
	mux.HandleFunc("GET /api/reports/map", s.handleMapReport)
	mux.HandleFunc("GET /api/reports/counters", s.handleCounterReport)
}

// handleHome is the liveness endpoint used by external uptime monitoring.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Red Panda is eating bamboo"))
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store read failed")
		writeError(w, http.StatusBadGateway, "store unavailable")
		return
	}

	if tag := r.URL.Query().Get("tag"); tag != "" {
		want := domain.CanonicalTag(tag)
		filtered := records[:0]
		for _, rec := range records {
			if rec.PlayerTag == want {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	out := make([]matchJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toMatchJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": out})
}

func (s *Server) handleMapReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	mapName := r.URL.Query().Get("map")
	if mapName == "" {
		writeError(w, http.StatusBadRequest, "map is required")
		return
	}

	tags, ok := s.requireTags(ctx, w, r)
	if !ok {
		return
	}

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store read failed")
		writeError(w, http.StatusBadGateway, "store unavailable")
		return
	}

	since := time.Now().UTC().Add(-s.retention)
	entries := report.MapReport(records, tags, mapName, since)

	out := make([]usageJSON, 0, len(entries))
	for _, u := range entries {
		out = append(out, usageJSON{
			Brawler: u.Brawler,
			Played:  u.Played,
			Wins:    u.Wins,
			WinRate: u.WinRate(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"map": mapName, "entries": out})
}

func (s *Server) handleCounterReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	tags, ok := s.requireTags(ctx, w, r)
	if !ok {
		return
	}

	records, err := s.store.ReadAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store read failed")
		writeError(w, http.StatusBadGateway, "store unavailable")
		return
	}

	since := time.Now().UTC().Add(-s.retention)
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": report.CounterReport(records, tags, since),
	})
}

// requireTags parses ?tags=a,b,c and rejects any tag that is not on the
// roster. This is the only user-facing validation the core surfaces.
func (s *Server) requireTags(ctx context.Context, w http.ResponseWriter, r *http.Request) ([]string, bool) {
	raw := r.URL.Query().Get("tags")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "tags is required")
		return nil, false
	}

	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := domain.CanonicalTag(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags is required")
		return nil, false
	}

	roster, err := s.roster.Players(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("roster read failed")
		writeError(w, http.StatusBadGateway, "store unavailable")
		return nil, false
	}

	tracked := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		tracked[p.Tag] = struct{}{}
	}
	for _, tag := range tags {
		if _, ok := tracked[tag]; !ok {
			writeError(w, http.StatusBadRequest, "unknown player tag: "+tag)
			return nil, false
		}
	}
	return tags, true
}

type matchJSON struct {
	PlayerTag    string `json:"playerTag"`
	BattleTime   string `json:"battleTime"`
	EventMode    string `json:"eventMode"`
	EventMap     string `json:"eventMap"`
	BrawlerName  string `json:"brawlerName"`
	Result       string `json:"result"`
	TrophyChange int    `json:"trophyChange"`
}

func toMatchJSON(rec domain.MatchRecord) matchJSON {
	return matchJSON{
		PlayerTag:    rec.PlayerTag,
		BattleTime:   domain.FormatBattleTime(rec.BattleTime),
		EventMode:    rec.EventMode,
		EventMap:     rec.EventMap,
		BrawlerName:  rec.BrawlerName,
		Result:       rec.Result,
		TrophyChange: rec.TrophyChange,
	}
}

type usageJSON struct {
	Brawler string  `json:"brawler"`
	Played  int     `json:"played"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
