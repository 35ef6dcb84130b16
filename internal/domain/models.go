package domain

import (
	"time"
)

// MatchRecord is one player's participation in one friendly match, as stored
// in the Matches sheet.
type MatchRecord struct {
	PlayerTag    string
	BattleTime   time.Time
	EventMode    string
	EventMap     string
	BrawlerName  string
	Result       string
	TrophyChange int
}

// MatchKey identifies a record for dedup. Two records with the same key are
// the same match seen twice; the instant is compared, not the raw string, so
// both upstream timestamp layouts map to one key.
type MatchKey struct {
	PlayerTag  string
	BattleUnix int64
}

func (r MatchRecord) Key() MatchKey {
	return MatchKey{PlayerTag: r.PlayerTag, BattleUnix: r.BattleTime.Unix()}
}

// TrackedPlayer is one roster entry from the Players sheet.
type TrackedPlayer struct {
	Tag string
}
