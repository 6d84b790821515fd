package playlist

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/selector"
)

// Option configures a Session
type Option func(*Session)

// WithListener sets the observer for session updates
func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listener = l
		}
	}
}

// WithContext sets the parent of the session's lifetime context. Video
// resolution started by the session stops when parent is done.
func WithContext(parent context.Context) Option {
	return func(s *Session) {
		if parent != nil {
			s.parent = parent
		}
	}
}

// WithPolicy sets where the automatic download policy is read from
func WithPolicy(src PolicySource) Option {
	return func(s *Session) {
		if src != nil {
			s.policy = src
		}
	}
}

// Session aggregates the load states of every video in one playlist.
type Session struct {
	id       string
	url      string
	resolver Resolver
	listener Listener
	policy   PolicySource
	trigger  Trigger

	// lifetime context for video resolution, cancelled on termination
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	title         string
	entries       map[string]*model.VideoEntry
	order         []string
	originalCount int
	counts        model.StateCounts
	available     []model.Resolution
	populated     bool
	loading       bool
	loadErr       error
	terminated    bool

	announced  bool
	lastStatus model.SessionStatus
	lastCounts model.StateCounts

	outbox   []func(Listener)
	draining bool
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID            string
	URL           string
	Title         string
	Status        model.SessionStatus
	Counts        model.StateCounts
	OriginalCount int
	Entries       []*model.VideoEntry
	Available     []model.Resolution
	Fired         bool
	Terminated    bool
}

// NewSession creates an unpopulated session for playlistURL
func NewSession(playlistURL string, resolver Resolver, opts ...Option) *Session {
	s := &Session{
		id:       "playlist-" + uuid.NewString(),
		url:      playlistURL,
		resolver: resolver,
		listener: NopListener,
		policy:   StaticPolicy(Policy{}),
		entries:  make(map[string]*model.VideoEntry),
		parent:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(s.parent)
	return s
}

func (s *Session) ID() string  { return s.id }
func (s *Session) URL() string { return s.url }

// Load resolves the playlist URL, populates the session and starts resolving
// every video. It returns once all videos have been handed to the resolver.
// ctx bounds only the playlist listing; video resolution runs on the session's
// lifetime context and ends with Close or termination.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.terminated:
		s.mu.Unlock()
		return model.ErrSessionTerminated
	case s.loading:
		s.mu.Unlock()
		return model.ErrLoadInProgress
	case s.populated:
		s.mu.Unlock()
		return fmt.Errorf("load %s: already populated: %w", s.id, model.ErrInvalidState)
	}
	s.loading = true
	s.loadErr = nil
	s.refreshLocked()
	s.mu.Unlock()
	s.drain()

	listing, err := s.resolver.ResolvePlaylist(ctx, s.url)
	if err == nil && (listing == nil || listing.Len() == 0) {
		err = model.ErrEmptyPlaylist
	}
	if err != nil {
		log.Printf("Failed to load playlist %s: %v", s.url, err)
		s.mu.Lock()
		s.loading = false
		s.loadErr = err
		s.refreshLocked()
		s.mu.Unlock()
		s.drain()
		return fmt.Errorf("load playlist %s: %w", s.url, err)
	}

	ids, err := s.Populate(listing)
	if err != nil {
		return err
	}
	s.dispatch(ids)
	return nil
}

// Populate creates one Waiting entry per listing item and returns their ids
// in playlist order. It is only valid once per session.
func (s *Session) Populate(listing *model.Playlist) ([]string, error) {
	if listing == nil || listing.Len() == 0 {
		return nil, model.ErrEmptyPlaylist
	}

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return nil, model.ErrSessionTerminated
	}
	if s.populated {
		s.mu.Unlock()
		return nil, fmt.Errorf("populate %s: %w", s.id, model.ErrInvalidState)
	}

	ids := make([]string, 0, listing.Len())
	for _, item := range listing.Items {
		e := model.NewVideoEntry(item.URL, item.Title)
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
		ids = append(ids, e.ID)
	}
	s.title = listing.Title
	s.originalCount = len(ids)
	s.counts = model.StateCounts{Waiting: len(ids)}
	s.populated = true
	s.loading = false
	s.loadErr = nil
	s.refreshLocked()
	s.mu.Unlock()
	s.drain()

	return ids, nil
}

// dispatch hands the given entries to the resolver, skipping removed ones
func (s *Session) dispatch(ids []string) {
	for _, id := range ids {
		s.mu.Lock()
		e, ok := s.entries[id]
		terminated := s.terminated
		var url string
		if ok {
			url = e.URL
		}
		s.mu.Unlock()

		if terminated {
			return
		}
		if ok {
			s.resolver.ResolveVideo(s.ctx, id, url, s.Apply)
		}
	}
}

// ReportTransition is Apply without payload
func (s *Session) ReportTransition(entryID string, state model.LoadState) {
	s.Apply(Transition{EntryID: entryID, State: state})
}

// Apply records a transition reported by a resolver. Duplicate deliveries are
// harmless, unknown ids are ignored and nothing is applied after termination.
func (s *Session) Apply(t Transition) {
	if !t.State.IsValid() {
		log.Printf("Ignoring transition to unknown state %q for %s", t.State, t.EntryID)
		return
	}

	s.mu.Lock()
	e, ok := s.entries[t.EntryID]
	if s.terminated || !ok {
		s.mu.Unlock()
		return
	}
	s.applyLocked(e, t)
	s.refreshLocked()
	s.evaluateLocked()
	s.mu.Unlock()
	s.drain()
}

func (s *Session) applyLocked(e *model.VideoEntry, t Transition) {
	prev := e.State
	if t.State == model.LoadStateLoaded && prev != model.LoadStateLoading && prev != model.LoadStateLoaded {
		log.Printf("Session %s: %v", s.id, &model.TransitionError{EntryID: e.ID, From: prev, To: t.State})
	}

	if prev != t.State {
		s.counts.Add(prev, -1)
		s.counts.Add(t.State, 1)
		e.SetState(t.State)
	}

	switch t.State {
	case model.LoadStateLoaded:
		if t.Resolutions != nil {
			if err := e.SetAvailableResolutions(t.Resolutions); err != nil {
				log.Printf("Session %s: %v", s.id, err)
			}
		}
	case model.LoadStateFailed:
		if t.Err != nil {
			e.Error = t.Err.Error()
		}
	}

	if t.Title != "" {
		e.Title = t.Title
	}
}

// RemoveEntry deregisters an entry. Removing the last entry terminates the
// session. It reports whether anything was removed.
func (s *Session) RemoveEntry(entryID string) bool {
	s.mu.Lock()
	e, ok := s.entries[entryID]
	if s.terminated || !ok {
		s.mu.Unlock()
		return false
	}

	s.counts.Add(e.State, -1)
	delete(s.entries, entryID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == entryID })

	if len(s.entries) == 0 {
		s.terminateLocked()
	} else {
		s.refreshLocked()
		s.evaluateLocked()
	}
	s.mu.Unlock()
	s.drain()
	return true
}

// RetryFailed asks the resolver again for every Failed entry. A session whose
// playlist never loaded retries the playlist itself; ctx then bounds the
// listing as in Load.
func (s *Session) RetryFailed(ctx context.Context) error {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return model.ErrSessionTerminated
	}
	if !s.populated {
		s.mu.Unlock()
		return s.Load(ctx)
	}

	var ids []string
	for _, id := range s.order {
		if s.entries[id].State == model.LoadStateFailed {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	if len(ids) > 0 {
		log.Printf("Retrying %d failed videos in %s", len(ids), s.id)
	}
	s.dispatch(ids)
	return nil
}

// SelectResolution applies label to every Loaded entry. Entries that do not
// offer label get their nearest offer instead.
func (s *Session) SelectResolution(label model.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return model.ErrSessionTerminated
	}
	if s.counts.Loaded == 0 {
		return model.ErrNoResolutionsAvailable
	}
	if !slices.Contains(s.available, label) {
		return fmt.Errorf("select %s for %s: %w", label, s.id, model.ErrNotAvailable)
	}
	assignResolutions(s.orderedLocked(), label)
	return nil
}

// SelectEntryResolution sets the download target of a single entry
func (s *Session) SelectEntryResolution(entryID string, r model.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("select %s: %w", entryID, model.ErrUnknownEntry)
	}
	return e.SelectResolution(r)
}

// Close terminates the session regardless of remaining entries
func (s *Session) Close() {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminateLocked()
	s.mu.Unlock()
	s.drain()
}

func (s *Session) terminateLocked() {
	s.terminated = true
	s.cancel()
	s.enqueue(func(l Listener) { l.OnSessionTerminated() })
}

// refreshLocked queues listener notifications for whatever changed since the
// last call.
func (s *Session) refreshLocked() {
	status := s.statusLocked()
	if !s.announced || status != s.lastStatus || s.counts != s.lastCounts {
		s.announced = true
		s.lastStatus = status
		s.lastCounts = s.counts
		counts := s.counts
		s.enqueue(func(l Listener) { l.OnStatusChanged(status, counts) })
	}

	available := selector.UnionAvailable(s.orderedLocked())
	if !slices.Equal(available, s.available) {
		s.available = available
		resolutions := slices.Clone(available)
		s.enqueue(func(l Listener) { l.OnAvailableResolutionsChanged(resolutions) })
	}
}

func (s *Session) evaluateLocked() {
	s.trigger.Evaluate(s.policy(), s.counts, s.fireLocked)
}

// fireLocked applies the policy tier and schedules the download callback.
// With any failed entry the current selections are left alone.
func (s *Session) fireLocked(policy Policy) {
	if s.counts.Failed == 0 {
		target, err := selector.Resolve(policy.Tier, s.available)
		if err != nil {
			log.Printf("Session %s: cannot resolve %s: %v", s.id, policy.Tier, err)
		} else {
			n := assignResolutions(s.orderedLocked(), target)
			log.Printf("Session %s: automatic download at %s for %d videos", s.id, target, n)
		}
	} else {
		log.Printf("Session %s: %d videos failed, keeping current selections", s.id, s.counts.Failed)
	}
	s.enqueue(func(l Listener) { l.OnAutomaticDownloadFired(s) })
}

func (s *Session) statusLocked() model.SessionStatus {
	if !s.populated {
		if s.loadErr != nil {
			return model.SessionStatusFailed
		}
		if s.loading {
			return model.SessionStatusLoading
		}
	}
	return s.counts.Status(len(s.entries))
}

func (s *Session) orderedLocked() []*model.VideoEntry {
	out := make([]*model.VideoEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

func (s *Session) enqueue(fn func(Listener)) {
	s.outbox = append(s.outbox, fn)
}

// drain delivers queued notifications. Only one goroutine delivers at a time;
// others leave their notifications to it.
func (s *Session) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.outbox) > 0 {
		batch := s.outbox
		s.outbox = nil
		s.mu.Unlock()
		for _, fn := range batch {
			fn(s.listener)
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// Title returns the playlist title once loaded
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Status returns the derived playlist status
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Counts returns the per-state entry counts
func (s *Session) Counts() model.StateCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Available returns the union of resolutions offered by Loaded entries
func (s *Session) Available() []model.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.available)
}

// Len returns the number of entries still registered
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// OriginalCount returns the number of entries created at population
func (s *Session) OriginalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originalCount
}

// LoadErr returns the last playlist resolution error, if any
func (s *Session) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// AutomaticDownloadFired reports whether the automatic download has fired
func (s *Session) AutomaticDownloadFired() bool {
	return s.trigger.Fired()
}

// ReadyForDownload reports whether a manual download can start: at least one
// Loaded entry and nothing still pending.
func (s *Session) ReadyForDownload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.terminated && s.counts.Loaded > 0 && s.counts.Waiting == 0 && s.counts.Loading == 0
}

// Entry returns a copy of one entry
func (s *Session) Entry(entryID string) (*model.VideoEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Entries returns copies of all entries in playlist order
func (s *Session) Entries() []*model.VideoEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

func (s *Session) entriesLocked() []*model.VideoEntry {
	out := make([]*model.VideoEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].Clone())
	}
	return out
}

// Snapshot returns a consistent copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:            s.id,
		URL:           s.url,
		Title:         s.title,
		Status:        s.statusLocked(),
		Counts:        s.counts,
		OriginalCount: s.originalCount,
		Entries:       s.entriesLocked(),
		Available:     slices.Clone(s.available),
		Fired:         s.trigger.Fired(),
		Terminated:    s.terminated,
	}
}

// CheckInvariants recounts every entry and compares the result with the
// incrementally maintained counts.
func (s *Session) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scan model.StateCounts
	for id, e := range s.entries {
		scan.Add(e.State, 1)
		if e.State != model.LoadStateLoaded && len(e.AvailableResolutions) > 0 {
			return fmt.Errorf("entry %s is %s but has resolutions %v", id, e.State, e.AvailableResolutions)
		}
	}
	if scan != s.counts {
		return fmt.Errorf("counts %+v differ from scan %+v", s.counts, scan)
	}
	if s.counts.Sum() != len(s.entries) {
		return fmt.Errorf("counts sum %d differs from %d entries", s.counts.Sum(), len(s.entries))
	}
	if len(s.order) != len(s.entries) {
		return fmt.Errorf("order has %d ids for %d entries", len(s.order), len(s.entries))
	}
	return nil
}
