package history

import (
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 2

// Run kinds.
const (
	KindScan  = "scan"
	KindFix   = "fix"
	KindWatch = "watch"
)

// Run is one recorded scan, fix or watch-mode re-analysis.
type Run struct {
	ID           uuid.UUID
	ProjectKey   string
	Kind         string
	Timestamp    time.Time
	PHPVersion   string
	FileCount    int
	FindingCount int
	FixedCount   int
	Findings     []FindingRecord
}

// FindingRecord is the persisted, ref-free form of a finding.
type FindingRecord struct {
	Path        string `msgpack:"p"`
	Line        int    `msgpack:"l"`
	Column      int    `msgpack:"c"`
	Pattern     string `msgpack:"k"`
	Message     string `msgpack:"m"`
	Replacement string `msgpack:"r"`
}

// PatternCounts tallies the run's findings per pattern.
func (r Run) PatternCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Pattern]++
	}
	return counts
}
