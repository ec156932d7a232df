// Package m3u converts between extended M3U text and models.Playlist.
//
// Both directions are pure functions with no shared state. Malformed input
// below the header is tolerated: unparsable numbers default, orphaned
// #EXTGRP and path lines are dropped, and unknown directives are skipped.
// The only failure is a missing #EXTM3U header, reported as a *FormatError.
package m3u

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/voyagen/m3uforge/internal/models"
)

// Attribute keys read from #EXTINF payloads, in the order they are written.
const (
	keyTvgID      = "tvg-id"
	keyTvgName    = "tvg-name"
	keyTvgLogo    = "tvg-logo"
	keyGroupID    = "group_id"
	keyGroupTitle = "group-title"
	censoredAttr  = `censored="1"`
)

var utf8BOM = []byte("\xef\xbb\xbf")

// DeserializeFile reads the playlist at path from fs and parses it.
func DeserializeFile(fs afero.Fs, path string) (*models.Playlist, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return DeserializeBytes(data)
}

// DeserializeReader reads r to the end and parses the result. Read errors
// are wrapped, so callers can still match e.g. *http.MaxBytesError.
func DeserializeReader(r io.Reader) (*models.Playlist, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return DeserializeBytes(data)
}

// DeserializeBytes decodes data as UTF-8 and parses it. Lines may end in
// "\r\n" or "\n"; blank lines are dropped before parsing.
func DeserializeBytes(data []byte) (*models.Playlist, error) {
	return Deserialize(SplitLines(data))
}

// SplitLines decodes data as UTF-8 (invalid sequences become U+FFFD, a
// leading byte order mark is dropped) and splits it on "\r\n" or "\n",
// discarding empty lines.
func SplitLines(data []byte) []string {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// Deserialize parses playlist lines. lines[0] must carry the #EXTM3U header
// (any case); otherwise a *FormatError is returned and no playlist is built.
func Deserialize(lines []string) (*models.Playlist, error) {
	if len(lines) == 0 {
		return nil, &FormatError{}
	}
	if !hasPrefixFold(lines[0], models.HeaderTag) {
		return nil, &FormatError{Header: lines[0]}
	}

	p := models.NewPlaylist()
	parseHeader(lines[0], p)

	var lp lineParser
	for _, line := range lines[1:] {
		lp.feed(line, p)
	}
	return p, nil
}

// parseHeader reads url-tvg, refresh and cache from the #EXTM3U line.
// deinterlace is written by Serialize but deliberately not read back here.
func parseHeader(line string, p *models.Playlist) {
	for _, attr := range strings.Split(line, " ") {
		if attr == "" {
			continue
		}
		switch {
		case hasPrefixFold(attr, "url-tvg="):
			v := attrValue(attr)
			p.URLTvg = &v
		case hasPrefixFold(attr, "refresh="):
			if n, ok := parseInt32(attrValue(attr)); ok {
				p.Refresh = n
			}
		case hasPrefixFold(attr, "cache="):
			if n, ok := parseInt32(attrValue(attr)); ok {
				p.Cache = n
			}
		}
	}
}

// attrValue returns the text between the first and second '=' of a
// key="value" token, with surrounding quotes trimmed.
func attrValue(attr string) string {
	v := strings.Split(attr, "=")[1]
	return strings.Trim(v, `"`)
}

// lineParser is a two-state machine: with pending == nil no entry is open;
// otherwise pending collects the entry opened by the last #EXTINF line until
// its path line arrives.
type lineParser struct {
	pending *models.Entry
}

func (lp *lineParser) feed(line string, p *models.Playlist) {
	switch {
	case hasPrefixFold(line, models.InfoTag):
		// An unfinished entry is replaced, never emitted.
		lp.pending = parseInfo(line)
	case hasPrefixFold(line, models.GroupingTag):
		if lp.pending != nil {
			g := line[len(models.GroupingTag):]
			lp.pending.Grouping = &g
		}
	case !strings.HasPrefix(line, "#"):
		if lp.pending != nil {
			lp.pending.FilePath = strings.TrimSpace(line)
			p.Entries = append(p.Entries, *lp.pending)
		}
		lp.pending = nil
	}
}

// parseInfo builds a pending entry from an #EXTINF line.
func parseInfo(line string) *models.Entry {
	payload := line[len(models.InfoTag):]

	first := payload
	if i := strings.IndexAny(payload, " =,"); i >= 0 {
		first = payload[:i]
	}
	duration, _ := parseInt32(strings.TrimSpace(first))

	md := &models.Metadata{Censored: strings.Contains(line, censoredAttr)}
	md.TvgID = lookupAttr(payload, keyTvgID)
	md.TvgName = lookupAttr(payload, keyTvgName)
	md.TvgLogo = lookupAttr(payload, keyTvgLogo)
	md.GroupID = lookupAttr(payload, keyGroupID)
	md.GroupTitle = lookupAttr(payload, keyGroupTitle)

	title := ""
	if i := strings.LastIndexByte(payload, ','); i >= 0 {
		title = strings.TrimSpace(payload[i+1:])
	}

	return &models.Entry{
		Duration: duration,
		Title:    title,
		Metadata: md,
	}
}

// parseInt32 parses a decimal number that fits in 32 bits. Anything else,
// including larger values, yields (0, false).
func parseInt32(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// lookupAttr returns the quoted value following the first occurrence of key
// in payload. It does not check token boundaries, so a key that also occurs
// inside an earlier value matches there. It returns nil when key does not
// occur or no complete quote pair follows it.
func lookupAttr(payload, key string) *string {
	if !strings.Contains(payload, key) {
		return nil
	}
	rest := payload[indexFold(payload, key):]
	q1 := strings.IndexByte(rest, '"')
	if q1 < 0 {
		return nil
	}
	q2 := strings.IndexByte(rest[q1+1:], '"')
	if q2 < 0 {
		return nil
	}
	v := rest[q1+1 : q1+1+q2]
	return &v
}

// hasPrefixFold reports whether s begins with the ASCII prefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is strings.Index ignoring case for an ASCII substr.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
