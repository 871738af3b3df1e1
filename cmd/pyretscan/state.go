package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/funvibe/pyretscan/internal/scanner"
)

// runState decodes a serialized scanner state, e.g. one read from a
// checkpoint database.
func runState(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pyretscan state <hex>")
	}
	buf, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decoding %q: %w", args[0], err)
	}
	st := scanner.Deserialize(buf)
	_, err = fmt.Fprintf(out, "%s (%d byte(s) in, %x out)\n", st.Prev, len(buf), st.Bytes())
	return err
}
