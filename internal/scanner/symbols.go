package scanner

import (
	"strconv"
	"strings"
)

// Symbol is an external token kind shared with the grammar. The numeric
// values follow the grammar's externals order.
type Symbol int

const (
	ParenNoSpace Symbol = iota
	ParenAfterSpace
	ParenAfterBrace
	OpenAngle
	CloseAngle
	LessThan
	GreaterThan
	// ErrorSentinel is set by the engine while it recovers from a syntax
	// error. It is never produced.
	ErrorSentinel

	symbolCount
)

var symbolNames = [symbolCount]string{
	ParenNoSpace:    "ParenNoSpace",
	ParenAfterSpace: "ParenAfterSpace",
	ParenAfterBrace: "ParenAfterBrace",
	OpenAngle:       "OpenAngle",
	CloseAngle:      "CloseAngle",
	LessThan:        "LessThan",
	GreaterThan:     "GreaterThan",
	ErrorSentinel:   "ErrorSentinel",
}

func (s Symbol) String() string {
	if s < 0 || s >= symbolCount {
		return "Symbol(" + strconv.Itoa(int(s)) + ")"
	}
	return symbolNames[s]
}

// grammarAliases are the names used in grammar.js externals.
var grammarAliases = map[string]Symbol{
	"parenspace": ParenAfterSpace,
	"lt":         LessThan,
	"gt":         GreaterThan,
}

// ParseSymbol looks up a symbol by name. Case and underscores are ignored,
// so both ParenNoSpace and paren_no_space resolve.
func ParseSymbol(name string) (Symbol, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for i, n := range symbolNames {
		if strings.ToLower(n) == key {
			return Symbol(i), true
		}
	}
	if s, ok := grammarAliases[key]; ok {
		return s, true
	}
	return 0, false
}

// Symbols lists every external symbol in grammar order.
func Symbols() []Symbol {
	out := make([]Symbol, 0, symbolCount)
	for s := Symbol(0); s < symbolCount; s++ {
		out = append(out, s)
	}
	return out
}

// CandidateSet is the set of external symbols the engine accepts at the
// current position. The zero value is the empty set.
type CandidateSet struct {
	bits uint16
}

var (
	parenCandidates = NewCandidateSet(ParenNoSpace, ParenAfterSpace, ParenAfterBrace)
	angleCandidates = NewCandidateSet(OpenAngle, CloseAngle, LessThan, GreaterThan)
)

func NewCandidateSet(syms ...Symbol) CandidateSet {
	var c CandidateSet
	for _, s := range syms {
		c = c.With(s)
	}
	return c
}

// ParseCandidates builds a set from symbol names. Unknown names are
// returned so callers can report them.
func ParseCandidates(names []string) (CandidateSet, []string) {
	var c CandidateSet
	var unknown []string
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		s, ok := ParseSymbol(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		c = c.With(s)
	}
	return c, unknown
}

func (c CandidateSet) Has(s Symbol) bool {
	if s < 0 || s >= symbolCount {
		return false
	}
	return c.bits&(1<<uint(s)) != 0
}

func (c CandidateSet) With(s Symbol) CandidateSet {
	if s < 0 || s >= symbolCount {
		return c
	}
	c.bits |= 1 << uint(s)
	return c
}

func (c CandidateSet) Without(s Symbol) CandidateSet {
	if s < 0 || s >= symbolCount {
		return c
	}
	c.bits &^= 1 << uint(s)
	return c
}

func (c CandidateSet) IsEmpty() bool { return c.bits == 0 }

// Union returns the symbols offered by either set.
func (c CandidateSet) Union(o CandidateSet) CandidateSet { return CandidateSet{bits: c.bits | o.bits} }

func (c CandidateSet) intersects(o CandidateSet) bool { return c.bits&o.bits != 0 }

// Symbols returns the members in grammar order.
func (c CandidateSet) Symbols() []Symbol {
	var out []Symbol
	for s := Symbol(0); s < symbolCount; s++ {
		if c.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

func (c CandidateSet) String() string {
	syms := c.Symbols()
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Layout maps positions in an engine's valid-symbols array to symbols.
type Layout []Symbol

// DefaultLayout is the externals order declared by the grammar.
var DefaultLayout = Layout(Symbols())

// Candidates converts an engine valid-symbols array into a CandidateSet.
// Entries beyond the layout are ignored.
func (l Layout) Candidates(valid []bool) CandidateSet {
	var c CandidateSet
	for i, ok := range valid {
		if !ok || i >= len(l) {
			continue
		}
		c = c.With(l[i])
	}
	return c
}

// Valid is the inverse of Candidates.
func (l Layout) Valid(c CandidateSet) []bool {
	valid := make([]bool, len(l))
	for i, s := range l {
		valid[i] = c.Has(s)
	}
	return valid
}

// Index reports where s lives in the engine's array.
func (l Layout) Index(s Symbol) (int, bool) {
	for i, ls := range l {
		if ls == s {
			return i, true
		}
	}
	return -1, false
}
