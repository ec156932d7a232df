package fetcher

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when the upstream body exceeds the download cap.
var ErrTooLarge = errors.New("playlist too large")

// StatusError is returned when the upstream answers with anything but 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }
