package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voyagen/m3uforge/internal/m3u"
	"github.com/voyagen/m3uforge/internal/models"
)

// maxBody caps the size of a downloaded playlist.
var maxBody int64 = 64 << 20

// FetchPlaylist downloads the M3U playlist at url and parses it.
// userAgent is optional. A body without the #EXTM3U header yields an error
// wrapping m3u.ErrFormat.
func FetchPlaylist(ctx context.Context, url string, userAgent string, timeout time.Duration) (*models.Playlist, error) {
	body, err := Fetch(ctx, url, userAgent, timeout)
	if err != nil {
		return nil, err
	}
	return m3u.DeserializeBytes(body)
}

// Fetch downloads url and returns the raw body.
func Fetch(ctx context.Context, url string, userAgent string, timeout time.Duration) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	// One byte past the cap tells a full body from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	if int64(len(body)) > maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBody)
	}
	return body, nil
}
