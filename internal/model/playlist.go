package model

import (
	"fmt"
	"time"
)

// PlaylistItem is one member of a resolved playlist listing
type PlaylistItem struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

// Playlist is the ordered listing returned when a playlist URL is resolved
type Playlist struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Items     []PlaylistItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewPlaylist creates an empty listing for url
func NewPlaylist(url string) *Playlist {
	return &Playlist{
		URL:       url,
		Items:     make([]PlaylistItem, 0),
		CreatedAt: time.Now(),
	}
}

// AddItem appends a member video to the listing
func (p *Playlist) AddItem(item PlaylistItem) {
	p.Items = append(p.Items, item)
}

// Len returns the number of member videos
func (p *Playlist) Len() int {
	return len(p.Items)
}

// StateCounts holds how many entries of a playlist are in each load state.
type StateCounts struct {
	Waiting int `json:"waiting"`
	Loading int `json:"loading"`
	Loaded  int `json:"loaded"`
	Failed  int `json:"failed"`
}

// Sum returns the total number of entries counted
func (c StateCounts) Sum() int {
	return c.Waiting + c.Loading + c.Loaded + c.Failed
}

// Add adjusts the count for state by delta
func (c *StateCounts) Add(state LoadState, delta int) {
	switch state {
	case LoadStateWaiting:
		c.Waiting += delta
	case LoadStateLoading:
		c.Loading += delta
	case LoadStateLoaded:
		c.Loaded += delta
	case LoadStateFailed:
		c.Failed += delta
	}
}

// Status derives the playlist status for a set of total entries: Failed if
// anything failed, Waiting while nothing has started, Loading while work is
// outstanding, otherwise Complete.
func (c StateCounts) Status(total int) SessionStatus {
	switch {
	case c.Failed > 0:
		return SessionStatusFailed
	case c.Waiting == total:
		return SessionStatusWaiting
	case c.Loading > 0 || c.Waiting > 0:
		return SessionStatusLoading
	default:
		return SessionStatusComplete
	}
}

// String formats the counts the way the playlist row displays them
func (c StateCounts) String() string {
	return fmt.Sprintf("Failed : %d |   Waiting : %d |   Loading : %d |   Loaded : %d",
		c.Failed, c.Waiting, c.Loading, c.Loaded)
}
