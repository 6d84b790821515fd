package config

import (
	"time"

	"fyne.io/fyne/v2"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/platform"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir      = "download_directory"
	KeyMaxParallel      = "max_parallel_downloads"
	KeyMaxResolvers     = "max_parallel_resolvers"
	KeyResolverRate     = "resolver_requests_per_second"
	KeyProbeTimeout     = "resolver_probe_timeout_seconds"
	KeyAutoDownload     = "automatic_download_enabled"
	KeyAutoDownloadTier = "automatic_download_quality"
)

// Default values
const (
	DefaultMaxParallel  = 2
	DefaultMaxResolvers = 8
	DefaultResolverRate = 4.0
	DefaultProbeTimeout = 45 * time.Second
	DefaultAutoDownload = false
	DefaultDownloadDir  = "/tmp/downloads"
	MaxParallelLimit    = 10
	MaxResolversLimit   = 32
)

// DefaultAutoDownloadTier is used until the user picks a quality
var DefaultAutoDownloadTier = model.HighestQuality

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = DefaultDownloadDir
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	s.app.Preferences().SetInt(KeyMaxParallel, clamp(count, 1, MaxParallelLimit))
}

// GetMaxParallelResolvers returns how many videos are probed at once
func (s *Settings) GetMaxParallelResolvers() int {
	value := s.app.Preferences().Int(KeyMaxResolvers)
	if value <= 0 {
		s.SetMaxParallelResolvers(DefaultMaxResolvers)
		return DefaultMaxResolvers
	}
	return value
}

// SetMaxParallelResolvers sets how many videos are probed at once
func (s *Settings) SetMaxParallelResolvers(count int) {
	s.app.Preferences().SetInt(KeyMaxResolvers, clamp(count, 1, MaxResolversLimit))
}

// GetResolverRate returns the probe pacing in requests per second
func (s *Settings) GetResolverRate() float64 {
	value := s.app.Preferences().Float(KeyResolverRate)
	if value <= 0 {
		s.SetResolverRate(DefaultResolverRate)
		return DefaultResolverRate
	}
	return value
}

// SetResolverRate sets the probe pacing; non-positive values restore the default
func (s *Settings) SetResolverRate(rps float64) {
	if rps <= 0 {
		rps = DefaultResolverRate
	}
	s.app.Preferences().SetFloat(KeyResolverRate, rps)
}

// GetProbeTimeout returns how long a single video lookup may take
func (s *Settings) GetProbeTimeout() time.Duration {
	seconds := s.app.Preferences().Int(KeyProbeTimeout)
	if seconds <= 0 {
		return DefaultProbeTimeout
	}
	return time.Duration(seconds) * time.Second
}

// SetProbeTimeout stores the lookup timeout in whole seconds; anything under
// a second restores the default
func (s *Settings) SetProbeTimeout(timeout time.Duration) {
	if timeout < time.Second {
		timeout = DefaultProbeTimeout
	}
	s.app.Preferences().SetInt(KeyProbeTimeout, int(timeout/time.Second))
}

// GetAutomaticDownload returns whether playlists download once resolved
func (s *Settings) GetAutomaticDownload() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoDownload, DefaultAutoDownload)
}

// SetAutomaticDownload enables or disables the automatic download
func (s *Settings) SetAutomaticDownload(enabled bool) {
	s.app.Preferences().SetBool(KeyAutoDownload, enabled)
}

// GetAutomaticDownloadQuality returns the quality tier used by the automatic download
func (s *Settings) GetAutomaticDownloadQuality() model.QualityTier {
	value := s.app.Preferences().String(KeyAutoDownloadTier)
	tier, err := model.ParseQualityTier(value)
	if value == "" || err != nil {
		s.SetAutomaticDownloadQuality(DefaultAutoDownloadTier)
		return DefaultAutoDownloadTier
	}
	return tier
}

// SetAutomaticDownloadQuality sets the quality tier used by the automatic download
func (s *Settings) SetAutomaticDownloadQuality(tier model.QualityTier) {
	s.app.Preferences().SetString(KeyAutoDownloadTier, tier.String())
}

// AutomaticDownloadPolicy assembles the current automatic download policy.
// It is meant to be used as a playlist.PolicySource.
func (s *Settings) AutomaticDownloadPolicy() playlist.Policy {
	return playlist.Policy{
		Enabled: s.GetAutomaticDownload(),
		Tier:    s.GetAutomaticDownloadQuality(),
	}
}

// GetQualityTierOptions returns the tiers offered in the settings dialog
func (s *Settings) GetQualityTierOptions() []model.QualityTier {
	return []model.QualityTier{
		model.HighestQuality,
		model.Concrete(1080),
		model.Concrete(720),
		model.Concrete(480),
		model.Concrete(360),
		model.LowestQuality,
		model.AudioOnlyTier,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
