package resolver

import (
	"context"
	"log"
	"sync"

	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Default limits
const (
	DefaultMaxParallel       = 8
	DefaultRequestsPerSecond = 4.0
)

// Lister lists the member videos of a playlist
type Lister interface {
	ListPlaylist(ctx context.Context, url string) (*model.Playlist, error)
}

// VideoProber fetches the resolutions one video offers
type VideoProber interface {
	Probe(ctx context.Context, videoURL string) (*Probe, error)
}

// Options configures a Service
type Options struct {
	MaxParallel       int
	RequestsPerSecond float64 // <= 0 disables pacing
}

// Service implements playlist.Resolver on top of a Lister and a VideoProber.
type Service struct {
	lister  Lister
	prober  VideoProber
	limiter *rate.Limiter
	group   *errgroup.Group
	pending sync.WaitGroup
}

// NewService creates a resolver service
func NewService(lister Lister, prober VideoProber, opts Options) *Service {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	group := new(errgroup.Group)
	group.SetLimit(opts.MaxParallel)

	return &Service{
		lister:  lister,
		prober:  prober,
		limiter: rate.NewLimiter(limit, 1),
		group:   group,
	}
}

// ResolvePlaylist lists playlistURL
func (s *Service) ResolvePlaylist(ctx context.Context, playlistURL string) (*model.Playlist, error) {
	p, err := s.lister.ListPlaylist(ctx, playlistURL)
	if err != nil {
		return nil, &model.ResolverError{URL: playlistURL, Err: err}
	}
	return p, nil
}

// ResolveVideo reports Waiting immediately, then Loading and Loaded or Failed
// from a pool worker.
func (s *Service) ResolveVideo(ctx context.Context, entryID, videoURL string, report func(playlist.Transition)) {
	report(playlist.Transition{EntryID: entryID, State: model.LoadStateWaiting})

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.group.Go(func() error {
			s.resolve(ctx, entryID, videoURL, report)
			return nil
		})
	}()
}

func (s *Service) resolve(ctx context.Context, entryID, videoURL string, report func(playlist.Transition)) {
	if err := s.limiter.Wait(ctx); err != nil {
		report(playlist.Transition{EntryID: entryID, State: model.LoadStateFailed, Err: err})
		return
	}

	report(playlist.Transition{EntryID: entryID, State: model.LoadStateLoading})

	probe, err := s.prober.Probe(ctx, videoURL)
	if err != nil {
		log.Printf("Failed to resolve %s: %v", videoURL, err)
		report(playlist.Transition{
			EntryID: entryID,
			State:   model.LoadStateFailed,
			Err:     &model.ResolverError{URL: videoURL, Err: err},
		})
		return
	}

	report(playlist.Transition{
		EntryID:     entryID,
		State:       model.LoadStateLoaded,
		Resolutions: probe.Resolutions,
		Title:       probe.Title,
	})
}

// SetRequestsPerSecond changes the pacing of probes
func (s *Service) SetRequestsPerSecond(rps float64) {
	if rps <= 0 {
		s.limiter.SetLimit(rate.Inf)
		return
	}
	s.limiter.SetLimit(rate.Limit(rps))
}

// Wait blocks until every requested video has been resolved
func (s *Service) Wait() error {
	s.pending.Wait()
	return s.group.Wait()
}
