package domain

import (
	"fmt"
	"time"
)

// The battlelog API emits compact UTC timestamps in two layouts, with and
// without fractional seconds.
const (
	battleTimeLayout      = "20060102T150405.000Z0700"
	battleTimeShortLayout = "20060102T150405Z0700"
)

// ParseBattleTime parses an upstream battleTime string into a UTC instant.
func ParseBattleTime(s string) (time.Time, error) {
	if t, err := time.Parse(battleTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(battleTimeShortLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid battle time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatBattleTime renders the canonical stored form, always with fractional
// seconds.
func FormatBattleTime(t time.Time) string {
	return t.UTC().Format(battleTimeLayout)
}
