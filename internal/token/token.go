package token

import (
	"fmt"

	"github.com/funvibe/pyretscan/internal/scanner"
)

type TokenType string

type Token struct {
	Type   TokenType
	Lexeme string
	Start  int // byte offset of the first character
	End    int // byte offset just past the last character
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Type, t.Lexeme)
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	NAME    = "NAME"
	NUMBER  = "NUMBER"
	STRING  = "STRING"
	COMMENT = "COMMENT" // # to end of line, or #| ... |#

	// Produced by the context-sensitive scanner
	PAREN_NO_SPACE    = "PAREN_NO_SPACE"
	PAREN_SPACE       = "PAREN_SPACE"
	PAREN_AFTER_BRACE = "PAREN_AFTER_BRACE"
	LANGLE            = "LANGLE"
	RANGLE            = "RANGLE"
	LT                = "LT"
	GT                = "GT"

	// Plain punctuation, used when the scanner declines
	LPAREN     = "("
	RPAREN     = ")"
	LBRACE     = "{"
	RBRACE     = "}"
	LBRACK     = "["
	RBRACK     = "]"
	LANGLE_RAW = "<"
	RANGLE_RAW = ">"

	COMMA   = ","
	DOT     = "."
	COLON   = ":"
	SEMI    = ";"
	EQUALS  = "="
	PLUS    = "+"
	DASH    = "-"
	STAR    = "*"
	SLASH   = "/"
	CARET   = "^"
	BAR     = "|"
	BANG    = "!"
	PERCENT = "%"

	LEQ         = "<="
	GEQ         = ">="
	NEQ         = "<>"
	SPACESHIP   = "<=>"
	LARROW      = "<-"
	THINARROW   = "->"
	THICKARROW  = "=>"
	EQUALEQUAL  = "=="
	EQUALTILDE  = "=~"
	COLONCOLON  = "::"
	COLONEQUALS = ":="
	DOTDOTDOT   = "..."
)

var symbolTypes = map[scanner.Symbol]TokenType{
	scanner.ParenNoSpace:    PAREN_NO_SPACE,
	scanner.ParenAfterSpace: PAREN_SPACE,
	scanner.ParenAfterBrace: PAREN_AFTER_BRACE,
	scanner.OpenAngle:       LANGLE,
	scanner.CloseAngle:      RANGLE,
	scanner.LessThan:        LT,
	scanner.GreaterThan:     GT,
}

// FromSymbol returns the token type of a scanner-produced symbol.
func FromSymbol(s scanner.Symbol) TokenType {
	if t, ok := symbolTypes[s]; ok {
		return t
	}
	return ILLEGAL
}

// IsExternal reports whether t was produced by the context-sensitive scanner.
func IsExternal(t TokenType) bool {
	for _, st := range symbolTypes {
		if st == t {
			return true
		}
	}
	return false
}
