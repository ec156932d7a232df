package models

// Directive prefixes of the extended M3U format.
const (
	HeaderTag   = "#EXTM3U"
	InfoTag     = "#EXTINF:"
	GroupingTag = "#EXTGRP:"
)

// ContentType is the MIME type used when serving playlists.
const ContentType = "audio/x-mpegurl"
