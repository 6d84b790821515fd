package resolver

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ytget/yt-playlist-loader/internal/model"
)

// DefaultProbeTimeout bounds a single format probe
const DefaultProbeTimeout = 45 * time.Second

// Probe is what a video offers for download
type Probe struct {
	Title       string
	Resolutions []model.Resolution
}

// Prober fetches format information for single videos via yt-dlp
type Prober struct {
	timeout time.Duration
}

// NewProber creates a prober with the default timeout
func NewProber() *Prober {
	return &Prober{timeout: DefaultProbeTimeout}
}

// SetTimeout sets the timeout for a single probe
func (p *Prober) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Probe dumps the metadata of videoURL without downloading it
func (p *Prober) Probe(ctx context.Context, videoURL string) (*Probe, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := ytdlp.New().
		SkipDownload().
		NoPlaylist().
		NoWarnings().
		DumpJSON()

	result, err := cmd.Run(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp probe failed: %w", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, fmt.Errorf("no video information returned for %s", videoURL)
	}

	info := infos[0]
	var heights []int
	for _, f := range info.Formats {
		if f == nil || f.Height == nil {
			continue
		}
		if f.VCodec != nil && *f.VCodec == "none" {
			continue
		}
		heights = append(heights, int(*f.Height))
	}

	probe := &Probe{Resolutions: resolutionsFromHeights(heights)}
	if info.Title != nil {
		probe.Title = *info.Title
	}
	return probe, nil
}

// resolutionsFromHeights returns the unique positive heights sorted
// descending, followed by model.AudioOnly.
func resolutionsFromHeights(heights []int) []model.Resolution {
	out := make([]model.Resolution, 0, len(heights)+1)
	for _, h := range heights {
		r := model.Resolution(h)
		if r.IsNumeric() && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.Resolution) int {
		return cmp.Compare(b, a)
	})
	return append(out, model.AudioOnly)
}
