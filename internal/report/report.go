// Package report aggregates stored match records into the usage and
// win-rate summaries served to the chat front end. Everything here is
// stateless; callers pass in a store read.
package report

import (
	"sort"
	"strings"
	"time"

	"brawl-tracker/internal/constants"
	"brawl-tracker/internal/domain"
)

type BrawlerUsage struct {
	Brawler string `json:"brawler"`
	Played  int    `json:"played"`
	Wins    int    `json:"wins"`
}

// WinRate is a percentage in [0,100].
func (u BrawlerUsage) WinRate() float64 {
	if u.Played == 0 {
		return 0
	}
	return float64(u.Wins) / float64(u.Played) * 100
}

// MapReport ranks brawler usage for a tag set on one map since the given
// time. Showdown modes are excluded, as are records without a brawler or
// without a victory/defeat result. Top entries by usage, capped.
func MapReport(records []domain.MatchRecord, tags []string, mapName string, since time.Time) []BrawlerUsage {
	want := tagSet(tags)
	usage := make(map[string]*BrawlerUsage)

	for _, rec := range records {
		if _, ok := want[rec.PlayerTag]; !ok {
			continue
		}
		if !strings.EqualFold(rec.EventMap, mapName) {
			continue
		}
		if !rec.BattleTime.After(since) {
			continue
		}
		if isShowdown(rec.EventMode) {
			continue
		}
		brawler := strings.ToUpper(strings.TrimSpace(rec.BrawlerName))
		if brawler == "" {
			continue
		}
		result := strings.ToLower(rec.Result)
		if result != "victory" && result != "defeat" {
			continue
		}

		u, ok := usage[brawler]
		if !ok {
			u = &BrawlerUsage{Brawler: brawler}
			usage[brawler] = u
		}
		u.Played++
		if result == "victory" {
			u.Wins++
		}
	}

	return rank(usage, constants.MapReportLimit)
}

type CounterSuggestion struct {
	Brawler  string   `json:"brawler"`
	Played   int      `json:"played"`
	Counters []string `json:"counters"`
}

// CounterReport lists the most-used brawlers for a tag set since the given
// time, each with its static counter picks. All modes count here.
func CounterReport(records []domain.MatchRecord, tags []string, since time.Time) []CounterSuggestion {
	want := tagSet(tags)
	usage := make(map[string]*BrawlerUsage)

	for _, rec := range records {
		if _, ok := want[rec.PlayerTag]; !ok {
			continue
		}
		if !rec.BattleTime.After(since) {
			continue
		}
		brawler := strings.ToUpper(strings.TrimSpace(rec.BrawlerName))
		if brawler == "" {
			continue
		}

		u, ok := usage[brawler]
		if !ok {
			u = &BrawlerUsage{Brawler: brawler}
			usage[brawler] = u
		}
		u.Played++
	}

	top := rank(usage, constants.CounterReportLimit)
	out := make([]CounterSuggestion, 0, len(top))
	for _, u := range top {
		out = append(out, CounterSuggestion{
			Brawler:  u.Brawler,
			Played:   u.Played,
			Counters: CountersFor(u.Brawler),
		})
	}
	return out
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[domain.CanonicalTag(tag)] = struct{}{}
	}
	return set
}

func isShowdown(mode string) bool {
	m := strings.ToLower(strings.ReplaceAll(mode, " ", ""))
	return m == "soloshowdown" || m == "duoshowdown"
}

func rank(usage map[string]*BrawlerUsage, limit int) []BrawlerUsage {
	ranked := make([]BrawlerUsage, 0, len(usage))
	for _, u := range usage {
		ranked = append(ranked, *u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Played != ranked[j].Played {
			return ranked[i].Played > ranked[j].Played
		}
		return ranked[i].Brawler < ranked[j].Brawler
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
