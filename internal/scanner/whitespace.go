package scanner

import "unicode"

func isSpace(r rune) bool { return unicode.IsSpace(r) }

// skipWhitespace discards leading whitespace. Any amount of it leaves the
// scanner in PrecededByWhitespace.
func (s *Scanner) skipWhitespace(l Stream) {
	for !l.EOF() && isSpace(l.Lookahead()) {
		l.Skip()
		s.state.Prev = PrecededByWhitespace
	}
}
