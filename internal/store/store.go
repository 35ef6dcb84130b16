// Package store is the single access path to the persistent tabular store:
// a spreadsheet with a Players roster sheet and a Matches sheet. All lookups
// are linear scans over ReadAll; consistency across writers is the caller's
// job (the coordinator serializes mutation behind one lock).
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"brawl-tracker/internal/domain"
)

// ErrQuotaExceeded signals the provider's write-operation quota. It is a
// flow-control signal, not a user-facing failure: writers cool down and
// resume from the same call.
var ErrQuotaExceeded = errors.New("store write quota exceeded")

// ErrUnavailable covers any other store failure (reachability, auth, bad
// range). Fatal for the current cycle only.
var ErrUnavailable = errors.New("store unavailable")

// Store is the mutating and reading surface over the Matches sheet. Row
// order carries no meaning.
type Store interface {
	ReadAll(ctx context.Context) ([]domain.MatchRecord, error)
	Append(ctx context.Context, records []domain.MatchRecord) error
	Overwrite(ctx context.Context, records []domain.MatchRecord) error
	DeleteAt(ctx context.Context, pos int) error
}

// Roster reads the tracked-player list from the Players sheet. Re-read every
// cycle, never cached.
type Roster interface {
	Players(ctx context.Context) ([]domain.TrackedPlayer, error)
}

// Matches sheet columns: PlayerTag, BattleTime, EventMode, EventMap,
// BrawlerName, Result, Trophy Change.
const matchColumns = 7

func encodeRow(r domain.MatchRecord) []string {
	return []string{
		r.PlayerTag,
		domain.FormatBattleTime(r.BattleTime),
		r.EventMode,
		r.EventMap,
		r.BrawlerName,
		r.Result,
		strconv.Itoa(r.TrophyChange),
	}
}

func decodeRow(row []string) (domain.MatchRecord, error) {
	if len(row) < 2 {
		return domain.MatchRecord{}, fmt.Errorf("row has %d cells, want at least 2", len(row))
	}
	// Trailing empty cells are elided by the provider; pad them back.
	padded := make([]string, matchColumns)
	copy(padded, row)

	t, err := domain.ParseBattleTime(padded[1])
	if err != nil {
		return domain.MatchRecord{}, err
	}

	trophy := 0
	if padded[6] != "" {
		trophy, err = strconv.Atoi(padded[6])
		if err != nil {
			return domain.MatchRecord{}, fmt.Errorf("invalid trophy change %q: %w", padded[6], err)
		}
	}

	return domain.MatchRecord{
		PlayerTag:    domain.CanonicalTag(padded[0]),
		BattleTime:   t,
		EventMode:    padded[2],
		EventMap:     padded[3],
		BrawlerName:  padded[4],
		Result:       padded[5],
		TrophyChange: trophy,
	}, nil
}
