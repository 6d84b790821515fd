package playlist

import (
	"context"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// Transition is a state change reported for one entry.
type Transition struct {
	EntryID     string
	State       model.LoadState
	Resolutions []model.Resolution // set with LoadStateLoaded
	Title       string             // optional, set once known
	Err         error              // set with LoadStateFailed
}

// Resolver fetches playlist listings and per-video format information.
type Resolver interface {
	// ResolvePlaylist lists the member videos of a playlist in order.
	ResolvePlaylist(ctx context.Context, playlistURL string) (*model.Playlist, error)

	// ResolveVideo starts resolving one video and returns without waiting.
	// Progress is delivered through report, possibly from other goroutines.
	ResolveVideo(ctx context.Context, entryID, videoURL string, report func(Transition))
}

// Listener observes a session. Callbacks run outside the session lock.
type Listener interface {
	OnStatusChanged(status model.SessionStatus, counts model.StateCounts)
	OnAvailableResolutionsChanged(resolutions []model.Resolution)
	OnAutomaticDownloadFired(session *Session)
	OnSessionTerminated()
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	StatusChanged               func(model.SessionStatus, model.StateCounts)
	AvailableResolutionsChanged func([]model.Resolution)
	AutomaticDownloadFired      func(*Session)
	SessionTerminated           func()
}

func (f ListenerFuncs) OnStatusChanged(status model.SessionStatus, counts model.StateCounts) {
	if f.StatusChanged != nil {
		f.StatusChanged(status, counts)
	}
}

func (f ListenerFuncs) OnAvailableResolutionsChanged(resolutions []model.Resolution) {
	if f.AvailableResolutionsChanged != nil {
		f.AvailableResolutionsChanged(resolutions)
	}
}

func (f ListenerFuncs) OnAutomaticDownloadFired(session *Session) {
	if f.AutomaticDownloadFired != nil {
		f.AutomaticDownloadFired(session)
	}
}

func (f ListenerFuncs) OnSessionTerminated() {
	if f.SessionTerminated != nil {
		f.SessionTerminated()
	}
}

// NopListener ignores every notification.
var NopListener Listener = ListenerFuncs{}

// Policy is the automatic download configuration.
type Policy struct {
	Enabled bool
	Tier    model.QualityTier
}

// PolicySource returns the current policy. It is consulted on every
// evaluation so configuration changes apply to running sessions.
type PolicySource func() Policy

// StaticPolicy returns a PolicySource that always yields p
func StaticPolicy(p Policy) PolicySource {
	return func() Policy { return p }
}
