package scanner

// LineCommentMarker starts a line comment; a bracket followed by one is
// treated like a bracket followed by whitespace.
const LineCommentMarker = '#'

// trailingSpace reports whether the cursor sits at a token separator.
func trailingSpace(l Stream) bool {
	if l.EOF() {
		return true
	}
	r := l.Lookahead()
	return isSpace(r) || r == LineCommentMarker
}

// scanAngle decides between a type-parameter bracket and a comparison
// operator for the '<' or '>' at the cursor. A bracket surrounded by
// whitespace on both sides is the operator; anything else is a bracket.
func (s *Scanner) scanAngle(l Stream, valid CandidateSet) (Symbol, bool) {
	switch l.Lookahead() {
	case '<':
		return s.scanOpenAngle(l, valid)
	case '>':
		return s.scanCloseAngle(l, valid)
	}
	s.state.Prev = Normal
	return 0, false
}

func (s *Scanner) scanOpenAngle(l Stream, valid CandidateSet) (Symbol, bool) {
	l.Advance()
	l.MarkEnd()

	// <>, <= and <- belong to the grammar's own operator tokens.
	switch l.Lookahead() {
	case '>', '=', '-':
		s.state.Prev = Normal
		return 0, false
	}

	prev := s.state.Prev
	spaced := prev == PrecededByWhitespace && trailingSpace(l)
	s.state.Prev = Normal

	switch {
	case spaced && valid.Has(LessThan):
		return LessThan, true
	case valid.Has(OpenAngle):
		return OpenAngle, true
	}
	s.advise("invalid < encountered (prev=%s, candidates=%s)", prev, valid)
	return 0, false
}

// scanCloseAngle mirrors scanOpenAngle, except that an unmatched '>' is
// dropped without an advisory: closing brackets in ambiguous positions are
// routine and would only add noise.
func (s *Scanner) scanCloseAngle(l Stream, valid CandidateSet) (Symbol, bool) {
	l.Advance()
	l.MarkEnd()

	if l.Lookahead() == '=' {
		s.state.Prev = Normal
		return 0, false
	}

	spaced := s.state.Prev == PrecededByWhitespace && trailingSpace(l)
	s.state.Prev = Normal

	switch {
	case spaced && valid.Has(GreaterThan):
		return GreaterThan, true
	case valid.Has(CloseAngle):
		return CloseAngle, true
	}
	return 0, false
}
