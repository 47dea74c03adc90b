// Package profile holds the WAMS (Whatever A Match Search) tuning tables:
// per-gzip-level knobs controlling how hard the candidate search looks
// before settling on a match. Grounded on wams.rs.
package profile

// Lookahead tunes the Gzip and ThreeZip lookahead strategies' search budget.
type Lookahead struct {
	// ApatheticAboveLength quarters the candidate-distance budget once the
	// current best match already exceeds this length.
	ApatheticAboveLength uint16

	// AbortAboveLength skips the lookahead search (no candidate at the
	// next position) while the current best match is shorter than this.
	AbortAboveLength uint16
}

// WamsOptimisations is one gzip-level tuning profile.
type WamsOptimisations struct {
	// QuitSearchAboveLength: a candidate at least this long ends the search
	// immediately.
	QuitSearchAboveLength uint16

	// LimitCountOfDistances caps how many chain entries the candidate
	// search inspects.
	LimitCountOfDistances uint16

	// InsertOnlyBelowLength, if set, means a match is only recorded as
	// "obscured" in the hash chain once it is longer than this; unset
	// means every accepted match is recorded (no obscuring).
	InsertOnlyBelowLength    uint16
	HasInsertOnlyBelowLength bool

	// Lookahead, if set, tunes the Gzip/ThreeZip strategies' search budget.
	Lookahead    Lookahead
	HasLookahead bool
}

func greedy(quitSearchAboveLength, limitCountOfDistances, insertOnlyBelowLength uint16) WamsOptimisations {
	return WamsOptimisations{
		QuitSearchAboveLength:    quitSearchAboveLength,
		LimitCountOfDistances:    limitCountOfDistances,
		InsertOnlyBelowLength:    insertOnlyBelowLength,
		HasInsertOnlyBelowLength: true,
	}
}

func lookahead(quitSearchAboveLength, limitCountOfDistances, apatheticAboveLength, abortAboveLength uint16) WamsOptimisations {
	return WamsOptimisations{
		QuitSearchAboveLength: quitSearchAboveLength,
		LimitCountOfDistances: limitCountOfDistances,
		Lookahead: Lookahead{
			ApatheticAboveLength: apatheticAboveLength,
			AbortAboveLength:     abortAboveLength,
		},
		HasLookahead: true,
	}
}

// Configurations holds the nine gzip -1..-9 tuning profiles, indexed by
// level-1.
var Configurations = [9]WamsOptimisations{
	greedy(8, 4, 4),
	greedy(16, 8, 5),
	greedy(32, 32, 6),
	lookahead(16, 16, 4, 4),
	lookahead(32, 32, 8, 16),
	lookahead(128, 128, 8, 16),
	lookahead(128, 256, 8, 32),
	lookahead(258, 1024, 32, 128),
	lookahead(258, 4096, 32, 258),
}

// ForLevel returns the tuning profile for gzip level 1..9.
func ForLevel(level int) WamsOptimisations {
	if level < 1 || level > 9 {
		panic("profile: gzip level must be between 1 and 9")
	}
	return Configurations[level-1]
}
