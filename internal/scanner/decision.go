package scanner

import "fmt"

// Decision records one call to Scan as seen by the engine.
type Decision struct {
	Offset     int // where the engine positioned the stream
	Start, End int // token span when Produced
	Candidates CandidateSet
	Before     State
	After      State
	Symbol     Symbol
	Produced   bool
}

func (d Decision) String() string {
	if !d.Produced {
		return fmt.Sprintf("@%d %s %s -> none (%s)", d.Offset, d.Candidates, d.Before.Prev, d.After.Prev)
	}
	return fmt.Sprintf("@%d %s %s -> %s [%d,%d) (%s)", d.Offset, d.Candidates, d.Before.Prev, d.Symbol, d.Start, d.End, d.After.Prev)
}
