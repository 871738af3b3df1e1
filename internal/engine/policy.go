package engine

import (
	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

// Policy tells the engine which external symbols the grammar would accept
// at offset, given the previously emitted token (zero Token at start of
// file).
type Policy interface {
	Candidates(offset int, prev token.Token) scanner.CandidateSet
}

type PolicyFunc func(offset int, prev token.Token) scanner.CandidateSet

func (f PolicyFunc) Candidates(offset int, prev token.Token) scanner.CandidateSet {
	return f(offset, prev)
}

// StaticPolicy offers the same set at every position.
type StaticPolicy struct {
	Set scanner.CandidateSet
}

func (p StaticPolicy) Candidates(int, token.Token) scanner.CandidateSet { return p.Set }
