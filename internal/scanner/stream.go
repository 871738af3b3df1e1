package scanner

// Stream is the character cursor owned by the engine. It mirrors the
// external lexer API of tree-sitter: the scanner may look at one rune,
// consume it into the token, skip it, or fix the token end.
type Stream interface {
	// Lookahead returns the next rune, or 0 at end of input.
	Lookahead() rune
	// Advance consumes the lookahead as part of the token.
	Advance()
	// Skip consumes the lookahead without including it in the token.
	Skip()
	// MarkEnd fixes the token end at the current position. Later advances
	// are lookahead only.
	MarkEnd()
	EOF() bool
}
