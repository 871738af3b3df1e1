package scanner

// scanParen handles a '{' or '(' at the cursor.
//
// A '{' is never a token of ours: it is consumed only so the next call
// knows a brace came right before it. A '(' is committed as the first
// offered kind whose context matches, in priority order brace, space, none.
func (s *Scanner) scanParen(l Stream, valid CandidateSet) (Symbol, bool) {
	switch l.Lookahead() {
	case '{':
		l.Advance()
		s.state.Prev = PrecededByOpenBrace
		return 0, false
	case '(':
	default:
		s.state.Prev = Normal
		return 0, false
	}

	switch {
	case valid.Has(ParenAfterBrace) && s.state.Prev == PrecededByOpenBrace:
		l.Advance()
		s.state.Prev = Normal
		return ParenAfterBrace, true
	case valid.Has(ParenAfterSpace) && s.state.Prev == PrecededByWhitespace:
		l.Advance()
		s.state.Prev = Normal
		return ParenAfterSpace, true
	case valid.Has(ParenNoSpace) && s.state.Prev == Normal:
		l.Advance()
		return ParenNoSpace, true
	}

	s.advise("invalid ( encountered (prev=%s, candidates=%s)", s.state.Prev, valid)
	s.state.Prev = Normal
	return 0, false
}
