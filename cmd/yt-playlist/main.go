package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ytget/yt-playlist-loader/internal/download"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/platform"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
	"github.com/ytget/yt-playlist-loader/internal/resolver"
	"github.com/ytget/yt-playlist-loader/internal/selector"
)

func main() {
	// Command line flags
	var (
		urlFlag       = flag.String("url", "", "YouTube playlist URL")
		outputFlag    = flag.String("output", "", "Output directory (defaults to ~/Downloads)")
		qualityFlag   = flag.String("quality", model.HighestQuality.String(), "Quality: highest_quality, lowest_quality, audio_only or a height like 720p")
		autoFlag      = flag.Bool("auto", true, "Start downloading as soon as every video is resolved")
		parallelFlag  = flag.Int("parallel", 2, "Maximum parallel downloads")
		resolversFlag = flag.Int("resolvers", resolver.DefaultMaxParallel, "Maximum parallel video lookups")
		rpsFlag       = flag.Float64("rps", resolver.DefaultRequestsPerSecond, "Video lookups per second (0 = unlimited)")
		timeoutFlag   = flag.Duration("probe-timeout", resolver.DefaultProbeTimeout, "Time limit for a single video lookup (0 = none)")
		dryRunFlag    = flag.Bool("dry-run", false, "Resolve the playlist without downloading")
	)

	flag.Parse()

	playlistURL := *urlFlag
	if playlistURL == "" && flag.NArg() > 0 {
		playlistURL = flag.Arg(0)
	}
	if playlistURL == "" {
		fmt.Println("YT Playlist Loader - resolve and download YouTube playlists")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  yt-playlist -url <URL> [options]")
		fmt.Println("  yt-playlist <URL> [options]")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	tier, err := model.ParseQualityTier(*qualityFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outputDir := *outputFlag
	if outputDir == "" {
		if outputDir, err = platform.GetHomeDownloadsDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Error locating downloads directory: %v\n", err)
			os.Exit(1)
		}
	}
	if !*dryRunFlag {
		if err := platform.CreateDirectoryIfNotExists(outputDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outputDir, err)
			os.Exit(1)
		}
	}

	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prober := resolver.NewProber()
	prober.SetTimeout(*timeoutFlag)
	resolverSvc := resolver.NewService(resolver.NewPlaylistLister(), prober, resolver.Options{
		MaxParallel:       *resolversFlag,
		RequestsPerSecond: *rpsFlag,
	})

	downloadSvc := download.NewService(outputDir, *parallelFlag)
	downloadSvc.SetUpdateCallback(func(task *model.DownloadTask) {
		switch task.Status {
		case model.TaskStatusCompleted:
			fmt.Printf("✅ %s [%s] -> %s\n", task.GetDisplayTitle(), task.Resolution, task.OutputPath)
		case model.TaskStatusError:
			fmt.Printf("❌ %s [%s]: %s\n", task.GetDisplayTitle(), task.Resolution, task.LastError)
		}
	})

	startDownload := func(s *playlist.Session) {
		snap := s.Snapshot()
		if *dryRunFlag {
			fmt.Println("\n[Dry run - not downloading]")
			for _, e := range snap.Entries {
				fmt.Printf("   %-8s %-10s %s\n", e.State, e.SelectedResolution, e.Title)
			}
			return
		}
		tasks, err := downloadSvc.DownloadSession(snap)
		if len(tasks) == 0 {
			fmt.Fprintf(os.Stderr, "Error starting downloads: %v\n", err)
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Some videos were skipped: %v\n", err)
		}
		fmt.Printf("\n📥 Downloading %d videos to %s\n", len(tasks), outputDir)
	}

	listener := playlist.ListenerFuncs{
		StatusChanged: func(status model.SessionStatus, counts model.StateCounts) {
			fmt.Printf("%-9s %s\n", status.Label(), counts)
		},
		AvailableResolutionsChanged: func(resolutions []model.Resolution) {
			fmt.Printf("          available: %v\n", resolutions)
		},
		AutomaticDownloadFired: startDownload,
	}

	policy := playlist.Policy{Enabled: *autoFlag, Tier: tier}
	session := playlist.NewSession(playlistURL, resolverSvc,
		playlist.WithContext(ctx),
		playlist.WithListener(listener),
		playlist.WithPolicy(playlist.StaticPolicy(policy)))

	if err := session.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := resolverSvc.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving videos: %v\n", err)
	}
	if ctx.Err() != nil {
		fmt.Println("\nCancelled.")
		os.Exit(130)
	}

	counts := session.Counts()
	fmt.Printf("\n%s: %d videos, %d resolved, %d failed\n", session.Title(), session.Len(), counts.Loaded, counts.Failed)

	// Without the automatic trigger the chosen quality is applied by hand
	if !*autoFlag && session.ReadyForDownload() {
		target, err := selector.Resolve(tier, session.Available())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := session.SelectResolution(target); err != nil {
			fmt.Fprintf(os.Stderr, "Error selecting %s: %v\n", target, err)
			os.Exit(1)
		}
		startDownload(session)
	}

	downloadSvc.Wait()

	failed := 0
	for _, task := range downloadSvc.GetSessionTasks(session.ID()) {
		if task.Status == model.TaskStatusError {
			failed++
		}
	}
	if counts.Failed > 0 || failed > 0 {
		os.Exit(1)
	}
	fmt.Println("\n✨ Complete!")
}
