package domain

import (
	"strings"
)

// CanonicalTag normalizes a player tag to the single form used for every
// comparison and every stored row: uppercase with a leading '#'. Roster rows,
// request parameters and upstream participant tags all go through here; raw
// forms are never compared.
func CanonicalTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "#")
	if tag == "" {
		return ""
	}
	return "#" + strings.ToUpper(tag)
}
