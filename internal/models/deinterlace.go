package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Deinterlace is the deinterlacing hint a playlist passes to the player.
type Deinterlace int

const (
	DeinterlaceNone  Deinterlace = 0
	DeinterlaceBlend Deinterlace = 1
	DeinterlaceMean  Deinterlace = 2
)

func (d Deinterlace) String() string {
	switch d {
	case DeinterlaceNone:
		return "none"
	case DeinterlaceBlend:
		return "blend"
	case DeinterlaceMean:
		return "mean"
	default:
		return strconv.Itoa(int(d))
	}
}

// Valid reports whether d is one of the known modes.
func (d Deinterlace) Valid() bool {
	return d >= DeinterlaceNone && d <= DeinterlaceMean
}

// ParseDeinterlace accepts a mode name ("none", "blend", "mean") or its
// integer value.
func ParseDeinterlace(s string) (Deinterlace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return DeinterlaceNone, nil
	case "blend":
		return DeinterlaceBlend, nil
	case "mean":
		return DeinterlaceMean, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Deinterlace(n).Valid() {
		return DeinterlaceNone, fmt.Errorf("unknown deinterlace mode %q", s)
	}
	return Deinterlace(n), nil
}
