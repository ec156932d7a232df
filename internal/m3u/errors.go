package m3u

import (
	"errors"
	"fmt"
)

// ErrFormat is returned (wrapped in a *FormatError) when the input is empty
// or does not start with the #EXTM3U header.
var ErrFormat = errors.New("not a valid M3U file")

// FormatError reports a rejected playlist header.
type FormatError struct {
	// Header is the first line of the rejected input; empty when there were no lines.
	Header string
}

func (e *FormatError) Error() string {
	if e.Header == "" {
		return "m3u: " + ErrFormat.Error() + " (no header line)"
	}
	h := e.Header
	if len(h) > 64 {
		h = h[:64] + "..."
	}
	return fmt.Sprintf("m3u: %s (first line %q)", ErrFormat, h)
}

func (e *FormatError) Unwrap() error { return ErrFormat }
