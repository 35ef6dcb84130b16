package report

// counters is the static counter-pick table, keyed by uppercase brawler name.
var counters = map[string][]string{
	"SHELLY":   {"BARLEY", "DYNAMIKE", "TICK"},
	"COLT":     {"BEA", "PIPER", "BROCK"},
	"BULL":     {"SHELLY", "EL PRIMO", "ROSA"},
	"BROCK":    {"MORTIS", "CROW", "LEON"},
	"JESSIE":   {"PIPER", "BROCK", "BEA"},
	"NITA":     {"PIPER", "COLT", "BROCK"},
	"DYNAMIKE": {"MORTIS", "LEON", "CROW"},
	"EL PRIMO": {"SHELLY", "PIPER", "BULL"},
	"BARLEY":   {"MORTIS", "LEON", "COLT"},
	"POCO":     {"PIPER", "BROCK", "BEA"},
	"ROSA":     {"PIPER", "BEA", "SPIKE"},
	"MORTIS":   {"SHELLY", "BULL", "POCO"},
	"TICK":     {"MORTIS", "LEON", "COLT"},
	"PIPER":    {"MORTIS", "CROW", "LEON"},
	"BEA":      {"MORTIS", "BULL", "EL PRIMO"},
	"CROW":     {"SHELLY", "BULL", "ROSA"},
	"SPIKE":    {"PIPER", "BROCK", "CROW"},
	"LEON":     {"SHELLY", "ROSA", "SPIKE"},
}

// CountersFor returns the counter picks for a brawler, or nil when the table
// has no entry.
func CountersFor(brawler string) []string {
	picks, ok := counters[brawler]
	if !ok {
		return nil
	}
	out := make([]string, len(picks))
	copy(out, picks)
	return out
}
