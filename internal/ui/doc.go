package ui

// Package ui contains the Fyne-based desktop user interface. It opens playlist
// sessions from a URL, renders each session's resolution-state counters and
// resolution selector, and hands ready playlists to the download service.
