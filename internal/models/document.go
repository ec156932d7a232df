package models

import "time"

// Document is a stored editing session: a named playlist, optionally tied to
// the remote URL it was imported from.
type Document struct {
	ID         int64      `json:"id,omitempty"`
	Name       string     `json:"name"`
	SourceURL  *string    `json:"source_url,omitempty"`
	EntryCount int        `json:"entry_count"`
	Playlist   *Playlist  `json:"playlist,omitempty"` // nil in listings
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}
