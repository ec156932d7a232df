package models

// UnknownDuration marks an entry whose length is not known (live streams).
const UnknownDuration = -1

// Entry is a single media item of a playlist.
type Entry struct {
	Duration int       `json:"duration"`
	Title    string    `json:"title"`
	FilePath string    `json:"file_path"`
	Grouping *string   `json:"grouping,omitempty"` // from #EXTGRP, independent of Metadata.GroupTitle
	Metadata *Metadata `json:"metadata,omitempty"`
}

// NewEntry returns an entry with an unknown duration and no grouping or metadata.
func NewEntry(title, filePath string) Entry {
	return Entry{Duration: UnknownDuration, Title: title, FilePath: filePath}
}
