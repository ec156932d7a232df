package models

// Playlist is the root of an extended M3U file: the #EXTM3U header attributes
// plus the ordered entries that follow it.
type Playlist struct {
	URLTvg      *string     `json:"url_tvg,omitempty"`
	Cache       int         `json:"cache"`       // only written when > 0
	Deinterlace Deinterlace `json:"deinterlace"` // only written when not None
	Refresh     int         `json:"refresh"`     // seconds; only written when > 0
	Entries     []Entry     `json:"entries"`
}

// NewPlaylist returns an empty playlist with default header attributes.
func NewPlaylist() *Playlist {
	return &Playlist{Deinterlace: DeinterlaceNone, Entries: []Entry{}}
}
