// Package scanner resolves the lexical ambiguities of Pyret that a
// context-free grammar cannot: application versus grouping parentheses and
// type-parameter brackets versus comparison operators.
//
// The engine calls Scan only where one of these readings is possible,
// passing the set of external symbols it would accept. Scan commits to at
// most one of them, judging by the whitespace and brace seen immediately
// before the cursor and one rune after it. The scanner's memory is a single
// Prev tag that the engine saves and restores with Serialize/Deserialize.
package scanner

import (
	"log"
)

// Scanner holds the per-session disambiguation state. It is not safe for
// concurrent use; one parse session owns one Scanner.
type Scanner struct {
	state  State
	logger *log.Logger
}

type Option func(*Scanner)

// WithLogger sets the destination of advisory messages. A nil logger
// silences them.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

func WithState(st State) Option {
	return func(s *Scanner) { s.state = st }
}

func New(opts ...Option) *Scanner {
	s := &Scanner{logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) State() State { return s.state }

// Reset returns the scanner to the start-of-file state.
func (s *Scanner) Reset() { s.state = State{} }

// Serialize writes the state into buf, returning the byte count.
func (s *Scanner) Serialize(buf []byte) int { return s.state.Serialize(buf) }

// Snapshot returns a freshly allocated serialized copy of the state.
func (s *Scanner) Snapshot() []byte { return s.state.Bytes() }

func (s *Scanner) Deserialize(buf []byte) { s.state = Deserialize(buf) }

// Scan is the single entry point the engine calls at a decision point. It
// reports the committed symbol, or false when no token was produced; in the
// latter case the engine is expected to discard anything the stream
// advanced over.
func (s *Scanner) Scan(l Stream, valid CandidateSet) (Symbol, bool) {
	if valid.Has(ErrorSentinel) {
		return 0, false
	}

	wantParen := valid.intersects(parenCandidates)
	wantAngle := valid.intersects(angleCandidates)
	if wantParen || wantAngle {
		s.skipWhitespace(l)
	}

	switch r := l.Lookahead(); {
	case wantAngle && !l.EOF() && (r == '<' || r == '>'):
		return s.scanAngle(l, valid)
	case wantParen && !l.EOF() && (r == '(' || r == '{'):
		return s.scanParen(l, valid)
	}

	s.state.Prev = Normal
	return 0, false
}

func (s *Scanner) advise(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("pyretscan: "+format, args...)
}
