package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// VideoEntry is one video of a playlist session. Its state is driven by the
// owning session; the entry only guards its own resolution data.
type VideoEntry struct {
	ID                   string       `json:"id"`
	URL                  string       `json:"url"`
	Title                string       `json:"title"`
	State                LoadState    `json:"state"`
	AvailableResolutions []Resolution `json:"available_resolutions,omitempty"`
	SelectedResolution   Resolution   `json:"selected_resolution,omitempty"`
	Error                string       `json:"error,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// NewVideoEntry creates a Waiting entry with a fresh id
func NewVideoEntry(url, title string) *VideoEntry {
	now := time.Now()
	return &VideoEntry{
		ID:        "video-" + uuid.NewString(),
		URL:       url,
		Title:     title,
		State:     LoadStateWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetState moves the entry to state. Leaving Loaded drops the resolution data.
func (v *VideoEntry) SetState(state LoadState) {
	if v.State == LoadStateLoaded && state != LoadStateLoaded {
		v.AvailableResolutions = nil
		v.SelectedResolution = 0
	}
	if state != LoadStateFailed {
		v.Error = ""
	}
	v.State = state
	v.UpdatedAt = time.Now()
}

// SetAvailableResolutions records what the video offers. Only valid when Loaded.
func (v *VideoEntry) SetAvailableResolutions(list []Resolution) error {
	if v.State != LoadStateLoaded {
		return fmt.Errorf("set resolutions on %s entry %s: %w", v.State, v.ID, ErrInvalidState)
	}
	v.AvailableResolutions = slices.Clone(list)
	if !v.SelectedResolution.IsZero() && !v.Offers(v.SelectedResolution) {
		v.SelectedResolution = 0
	}
	v.UpdatedAt = time.Now()
	return nil
}

// Offers reports whether r can be downloaded for this entry. AudioOnly is
// offered by every Loaded entry.
func (v *VideoEntry) Offers(r Resolution) bool {
	if v.State != LoadStateLoaded {
		return false
	}
	if r.IsAudioOnly() {
		return true
	}
	return r.IsNumeric() && slices.Contains(v.AvailableResolutions, r)
}

// SelectResolution sets the download target
func (v *VideoEntry) SelectResolution(r Resolution) error {
	if !v.Offers(r) {
		return fmt.Errorf("select %s for entry %s: %w", r, v.ID, ErrNotAvailable)
	}
	v.SelectedResolution = r
	v.UpdatedAt = time.Now()
	return nil
}

// HasSelection reports whether a download target was chosen
func (v *VideoEntry) HasSelection() bool {
	return !v.SelectedResolution.IsZero()
}

// Clone returns a deep copy safe to hand out of the owning session
func (v *VideoEntry) Clone() *VideoEntry {
	c := *v
	c.AvailableResolutions = slices.Clone(v.AvailableResolutions)
	return &c
}
