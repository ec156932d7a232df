package models

// Metadata holds the #EXTINF attributes of an entry. Nil fields are absent
// and are not written.
type Metadata struct {
	Censored   bool    `json:"censored"`
	TvgID      *string `json:"tvg_id,omitempty"`
	TvgName    *string `json:"tvg_name,omitempty"`
	TvgLogo    *string `json:"tvg_logo,omitempty"`
	GroupID    *string `json:"group_id,omitempty"`
	GroupTitle *string `json:"group_title,omitempty"`
}
