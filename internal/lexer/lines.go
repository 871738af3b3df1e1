package lexer

import (
	"sort"
	"unicode/utf8"
)

// LineIndex converts byte offsets to 1-based line and column numbers.
type LineIndex struct {
	input  string
	starts []int
}

func NewLineIndex(input string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{input: input, starts: starts}
}

// Position returns the line and the rune column of offset.
func (x *LineIndex) Position(offset int) (line, column int) {
	if offset > len(x.input) {
		offset = len(x.input)
	}
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, utf8.RuneCountInString(x.input[x.starts[i]:offset]) + 1
}
