// Package sync is the data synchronization and retention pipeline: it
// reconciles the upstream battlelog feed against the store and enforces the
// rolling retention window.
package sync

import (
	"strings"

	"brawl-tracker/internal/api"
	"brawl-tracker/internal/domain"
)

// Normalize maps one raw battlelog entry to a MatchRecord for the given
// canonical tag. ok=false is a normal filtering outcome, not an error:
// map-less events, entries where the subject's brawler cannot be resolved,
// unparsable timestamps, and anything with a trophy change (ranked play) are
// all skipped. Only friendly matches (trophyChange == 0) are tracked.
func Normalize(entry api.BattleEntry, tag string) (domain.MatchRecord, bool) {
	if entry.Event.Map == nil {
		return domain.MatchRecord{}, false
	}

	battleTime, err := domain.ParseBattleTime(entry.BattleTime)
	if err != nil {
		return domain.MatchRecord{}, false
	}

	brawler := brawlerFor(entry.Battle, tag)
	if brawler == "" {
		return domain.MatchRecord{}, false
	}

	if entry.TrophyChange != 0 {
		return domain.MatchRecord{}, false
	}

	return domain.MatchRecord{
		PlayerTag:    tag,
		BattleTime:   battleTime,
		EventMode:    entry.Event.Mode,
		EventMap:     *entry.Event.Map,
		BrawlerName:  brawler,
		Result:       entry.Battle.Result,
		TrophyChange: 0,
	}, true
}

// brawlerFor finds the subject in the team-mode or showdown participant
// shape. Participant tags are canonicalized before comparison, so upstream
// '#'-prefix variations cannot miss.
func brawlerFor(battle api.BattleDetail, tag string) string {
	for _, team := range battle.Teams {
		for _, p := range team {
			if domain.CanonicalTag(p.Tag) == tag {
				return strings.ToUpper(p.Brawler.Name)
			}
		}
	}
	for _, p := range battle.Players {
		if domain.CanonicalTag(p.Tag) == tag {
			return strings.ToUpper(p.Brawler.Name)
		}
	}
	return ""
}
