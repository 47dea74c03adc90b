// Package technique ties together candidate enumeration (allrefs), match
// selection (picker), lookahead strategy, and WAMS tuning into the guesser
// an encoder emulation scans the plaintext with. Grounded on technique.rs.
package technique

import (
	"strconv"

	"github.com/elliotnunn/rezip/internal/allrefs"
	"github.com/elliotnunn/rezip/internal/codes"
	"github.com/elliotnunn/rezip/internal/lookahead"
	"github.com/elliotnunn/rezip/internal/picker"
	"github.com/elliotnunn/rezip/internal/profile"
)

// Config selects an encoder emulation profile: which lookahead strategy to
// run, which picker resolves ties among candidates, and the WAMS
// search-budget tuning. FirstByteBug is carried in the config but nothing
// reads it: the candidate index never offers position 0 as a match source,
// whatever its value.
type Config struct {
	FirstByteBug bool
	Lookahead    lookahead.Strategy
	Picker       picker.Picker
	Wams         profile.WamsOptimisations
}

// cachedPickerCapacity, as a multiple of a profile's chain cap, sizes the
// TinyLFU memo table wrapping the picker at the high-chain-cap levels:
// enough entries that the handful of positions a lazy/three-zip lookahead
// re-probes around the scanner's current position all stay resident.
const cachedPickerCapacity = 4

// GzipConfig builds the emulation profile for a real gzip -1..-9 level.
func GzipConfig(level int) Config {
	if level < 1 || level > 9 {
		panic("technique: gzip levels are between 1 and 9, inclusive")
	}
	var p picker.Picker
	var strategy lookahead.Strategy
	if level >= 4 {
		p = picker.DropFarThrees{}
		strategy = lookahead.Gzip
	} else {
		p = picker.Longest{}
		strategy = lookahead.Greedy
	}
	wams := profile.ForLevel(level)
	if level >= 8 {
		// Levels 8-9 raise limit_count_of_distances to 1024/4096, and the
		// Gzip/ThreeZip lookahead strategies they pair with re-probe
		// neighbouring positions; memoize the picker rather than
		// rescoring the same candidate set on every repeat.
		p = picker.NewCached(p, int(wams.LimitCountOfDistances)*cachedPickerCapacity)
	}
	return Config{
		FirstByteBug: true,
		Lookahead:    strategy,
		Picker:       p,
		Wams:         wams,
	}
}

// GzipDefaultConfig is the profile gzip uses when invoked without an
// explicit -N level (equivalent to level 6).
func GzipDefaultConfig() Config { return GzipConfig(6) }

// SpicyConfig is an aggressive, non-gzip-matching profile: maximum
// lookahead depth, with FirstByteBug set to false, useful for producing the
// smallest possible trace against an unknown encoder.
func SpicyConfig() Config {
	wams := profile.Configurations[8]
	return Config{
		FirstByteBug: false,
		Lookahead:    lookahead.ThreeZip,
		Picker:       picker.NewCached(picker.DropFarThrees{}, int(wams.LimitCountOfDistances)*cachedPickerCapacity),
		Wams:         wams,
	}
}

// Technique pairs a Config with the candidate index it searches.
type Technique struct {
	config  Config
	allRefs *allrefs.AllRefs
}

// New builds a Technique over allRefs using config.
func New(config Config, allRefs *allrefs.AllRefs) *Technique {
	return &Technique{config: config, allRefs: allRefs}
}

// ByteAt returns the plaintext byte at pos.
func (t *Technique) ByteAt(pos int) byte { return t.allRefs.ByteAt(pos) }

// NewScanner starts a fresh scan at position 0 with no obscured intervals.
func (t *Technique) NewScanner() *Scanner {
	return &Scanner{technique: t}
}

// Scanner walks the plaintext left to right, answering lookahead queries and
// tracking the obscured-interval state the WAMS insert_only_below_length
// tuning produces. Feedback is the single place pos and obscured mutate:
// every code consumed from the actual stream advances the scanner, whether
// it matched a guess or not.
type Scanner struct {
	technique *Technique
	obscured  []codes.Obscure
	pos       int
}

// DataLen is the length of the plaintext being scanned.
func (s *Scanner) DataLen() int { return s.technique.allRefs.DataLen() }

// Pos is the scanner's current position.
func (s *Scanner) Pos() int { return s.pos }

// ByteAt returns the plaintext byte at pos, independent of the scanner's
// current position. Used by the trace engine to reconstruct a code the
// emulation never guessed (Trace.ActuallyLiteral).
func (s *Scanner) ByteAt(pos int) byte { return s.technique.ByteAt(pos) }

// MoreData reports whether the scanner has plaintext left to consume.
func (s *Scanner) MoreData() bool { return s.pos < s.DataLen() }

// Feedback advances the scanner past code, and records an obscured interval
// if the WAMS profile calls for it (insert_only_below_length set and code a
// reference longer than that).
func (s *Scanner) Feedback(code codes.Code) {
	oldPos := s.pos
	s.pos += int(code.EmittedBytes())

	if !s.technique.config.Wams.HasInsertOnlyBelowLength {
		return
	}
	ref, ok := code.AsReference()
	if !ok {
		return
	}
	if ref.Run() <= s.technique.config.Wams.InsertOnlyBelowLength {
		return
	}
	s.obscured = append(s.obscured, codes.Obscure{Start: oldPos, Run: ref.Run()})
}

// BestCandidate implements lookahead.Looker.
func (s *Scanner) BestCandidate(pos int) (byte, codes.Ref, bool) {
	return s.BestCandidateBetterThan(pos, 0, false)
}

// BestCandidateBetterThan implements lookahead.Looker.
func (s *Scanner) BestCandidateBetterThan(pos int, otherRun uint16, haveOther bool) (byte, codes.Ref, bool) {
	currentLiteral := s.technique.allRefs.ByteAt(pos)
	limit := s.technique.config.Wams.LimitCountOfDistances

	if haveOther && s.technique.config.Wams.HasLookahead {
		la := s.technique.config.Wams.Lookahead
		if la.AbortAboveLength > otherRun {
			return currentLiteral, codes.Ref{}, false
		}
		if otherRun > la.ApatheticAboveLength {
			limit /= 4
		}
	}

	next, ok := s.technique.allRefs.At(pos, s.obscured)
	if !ok {
		return currentLiteral, codes.Ref{}, false
	}

	key := strconv.Itoa(pos)
	ref, found := s.technique.config.Picker.Pick(key, take(next, limit), s.technique.config.Wams.QuitSearchAboveLength)
	return currentLiteral, ref, found
}

// Codes implements the guesser interface: the code(s) the configured
// lookahead strategy proposes starting at the scanner's current position.
func (s *Scanner) Codes() []codes.Code {
	return s.technique.config.Lookahead.Propose(s, s.pos)
}

// take limits next to at most n results.
func take(next func() (codes.Ref, bool), n uint16) func() (codes.Ref, bool) {
	taken := uint16(0)
	return func() (codes.Ref, bool) {
		if taken >= n {
			return codes.Ref{}, false
		}
		taken++
		return next()
	}
}
