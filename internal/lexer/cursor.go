package lexer

import "unicode/utf8"

// Cursor is an in-memory character stream positioned at a decision point.
// Skipped runes move the token start forward; advanced runes extend the
// token up to the last MarkEnd (or to the cursor if MarkEnd was never
// called).
type Cursor struct {
	input  string
	origin int

	start  int
	pos    int
	end    int
	marked bool
}

func NewCursor(input string, offset int) *Cursor {
	if offset < 0 {
		offset = 0
	}
	if offset > len(input) {
		offset = len(input)
	}
	return &Cursor{input: input, origin: offset, start: offset, pos: offset, end: offset}
}

func (c *Cursor) Lookahead() rune {
	if c.pos >= len(c.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.input[c.pos:])
	return r
}

func (c *Cursor) EOF() bool { return c.pos >= len(c.input) }

func (c *Cursor) Advance() {
	if c.pos >= len(c.input) {
		return
	}
	_, w := utf8.DecodeRuneInString(c.input[c.pos:])
	c.pos += w
}

func (c *Cursor) Skip() {
	c.Advance()
	c.start = c.pos
	c.end = c.pos
}

func (c *Cursor) MarkEnd() {
	c.end = c.pos
	c.marked = true
}

// Span returns the token bounds.
func (c *Cursor) Span() (start, end int) {
	if !c.marked {
		return c.start, c.pos
	}
	if c.end < c.start {
		return c.start, c.start
	}
	return c.start, c.end
}

func (c *Cursor) Text() string {
	s, e := c.Span()
	return c.input[s:e]
}

// Pos is the read position, including lookahead past the token end.
func (c *Cursor) Pos() int { return c.pos }

// Origin is the offset the cursor was created at.
func (c *Cursor) Origin() int { return c.origin }

// Rewind drops everything read since the cursor was created.
func (c *Cursor) Rewind() {
	c.start, c.pos, c.end = c.origin, c.origin, c.origin
	c.marked = false
}
