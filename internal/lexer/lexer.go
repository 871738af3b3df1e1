// Package lexer provides the character stream the context-sensitive scanner
// reads from, and the plain lexer the reference engine falls back to for
// every token the scanner does not produce.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/pyretscan/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	lines        *LineIndex
}

func New(input string) *Lexer {
	l := &Lexer{input: input, lines: NewLineIndex(input)}
	l.Seek(0)
	return l
}

// Seek moves the lexer to a byte offset.
func (l *Lexer) Seek(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.input) {
		offset = len(l.input)
	}
	l.readPosition = offset
	l.readChar()
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

func (l *Lexer) atEOF() bool { return l.position >= len(l.input) }

// NextToken lexes one token starting at the current offset, skipping
// whitespace first. Comments come back as COMMENT tokens so that the caller
// gets a decision point after each of them.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	start := l.position
	if l.atEOF() {
		return l.makeToken(token.EOF, start)
	}

	var typ token.TokenType
	switch l.ch {
	case '#':
		if !l.readComment() {
			return l.makeToken(token.ILLEGAL, start)
		}
		return l.makeToken(token.COMMENT, start)
	case '<':
		// <=>, <=, <>, <-
		switch {
		case l.peekChar() == '=' && l.peekChar2() == '>':
			l.readChar()
			l.readChar()
			typ = token.SPACESHIP
		case l.peekChar() == '=':
			l.readChar()
			typ = token.LEQ
		case l.peekChar() == '>':
			l.readChar()
			typ = token.NEQ
		case l.peekChar() == '-':
			l.readChar()
			typ = token.LARROW
		default:
			typ = token.LANGLE_RAW
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			typ = token.GEQ
		} else {
			typ = token.RANGLE_RAW
		}
	case '=':
		switch l.peekChar() {
		case '=':
			l.readChar()
			typ = token.EQUALEQUAL
		case '~':
			l.readChar()
			typ = token.EQUALTILDE
		case '>':
			l.readChar()
			typ = token.THICKARROW
		default:
			typ = token.EQUALS
		}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			typ = token.THINARROW
		} else {
			typ = token.DASH
		}
	case ':':
		switch l.peekChar() {
		case ':':
			l.readChar()
			typ = token.COLONCOLON
		case '=':
			l.readChar()
			typ = token.COLONEQUALS
		default:
			typ = token.COLON
		}
	case '.':
		if l.peekChar() == '.' && l.peekChar2() == '.' {
			l.readChar()
			l.readChar()
			typ = token.DOTDOTDOT
		} else {
			typ = token.DOT
		}
	case '"', '\'':
		if !l.readString(l.ch) {
			return l.makeToken(token.ILLEGAL, start)
		}
		return l.makeToken(token.STRING, start)
	case '`':
		if !l.readTripleString() {
			return l.makeToken(token.ILLEGAL, start)
		}
		return l.makeToken(token.STRING, start)
	case '~':
		if !isDigit(l.peekChar()) {
			l.readChar()
			return l.makeToken(token.ILLEGAL, start)
		}
		l.readChar()
		l.readNumber()
		return l.makeToken(token.NUMBER, start)
	default:
		if t, ok := punctuation[l.ch]; ok {
			typ = t
			break
		}
		if isNameStart(l.ch) {
			l.readName()
			return l.makeToken(token.NAME, start)
		}
		if isDigit(l.ch) {
			l.readNumber()
			return l.makeToken(token.NUMBER, start)
		}
		typ = token.ILLEGAL
	}

	l.readChar()
	return l.makeToken(typ, start)
}

var punctuation = map[rune]token.TokenType{
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACK,
	']': token.RBRACK,
	',': token.COMMA,
	';': token.SEMI,
	'+': token.PLUS,
	'*': token.STAR,
	'/': token.SLASH,
	'^': token.CARET,
	'|': token.BAR,
	'!': token.BANG,
	'%': token.PERCENT,
}

func (l *Lexer) makeToken(typ token.TokenType, start int) token.Token {
	line, col := l.lines.Position(start)
	return token.Token{
		Type:   typ,
		Lexeme: l.input[start:l.position],
		Start:  start,
		End:    l.position,
		Line:   line,
		Column: col,
	}
}

// Position converts a byte offset to a line and column.
func (l *Lexer) Position(offset int) (int, int) { return l.lines.Position(offset) }

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// readComment consumes a line comment up to (not including) the newline,
// or a block comment through its closing |#. Block comments do not nest.
// It reports false for a block comment left open at end of input.
func (l *Lexer) readComment() bool {
	if l.peekChar() != '|' {
		for !l.atEOF() && l.ch != '\n' {
			l.readChar()
		}
		return true
	}
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '|' && l.peekChar() == '#' {
			l.readChar()
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readString consumes a quoted string; the current char is the quote.
func (l *Lexer) readString(quote rune) bool {
	l.readChar()
	for !l.atEOF() {
		switch l.ch {
		case '\\':
			l.readChar()
		case '\n':
			return false
		case quote:
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

func (l *Lexer) readTripleString() bool {
	if l.peekChar() != '`' || l.peekChar2() != '`' {
		l.readChar()
		return false
	}
	l.readChar()
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '`' && l.peekChar() == '`' && l.peekChar2() == '`' {
			l.readChar()
			l.readChar()
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readName consumes a Pyret name: dashes are allowed between name
// characters, so a-b is one name while a - b is three tokens.
func (l *Lexer) readName() {
	for isNameChar(l.ch) {
		l.readChar()
		for l.ch == '-' {
			next := l.readPosition
			for next < len(l.input) && l.input[next] == '-' {
				next++
			}
			if next >= len(l.input) {
				return
			}
			r, _ := utf8.DecodeRuneInString(l.input[next:])
			if !isNameChar(r) {
				return
			}
			for l.ch == '-' {
				l.readChar()
			}
		}
	}
}

// readNumber consumes digits with an optional fraction, exponent or
// rational denominator.
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	switch {
	case l.ch == '.' && isDigit(l.peekChar()):
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	case l.ch == '/' && isDigit(l.peekChar()):
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		return
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if next == '+' || next == '-' {
			if !isDigit(l.peekChar2()) {
				return
			}
			l.readChar()
		} else if !isDigit(next) {
			return
		}
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isNameStart(ch rune) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isNameChar(ch rune) bool { return isNameStart(ch) || isDigit(ch) }

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }
