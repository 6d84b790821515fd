package main

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/ytget/yt-playlist-loader/internal/config"
	"github.com/ytget/yt-playlist-loader/internal/download"
	"github.com/ytget/yt-playlist-loader/internal/platform"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
	"github.com/ytget/yt-playlist-loader/internal/resolver"
	"github.com/ytget/yt-playlist-loader/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.yt-playlist-loader"
	AppName = "YT Playlist Loader"

	WindowWidth  = 900
	WindowHeight = 640
)

func main() {
	// Log version information
	fmt.Printf("%s v%s starting...\n", AppName, version)

	// Create new Fyne app
	myApp := app.NewWithID(AppID)

	// Apply compact theme
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	// Initialize services
	settings := config.NewSettings(myApp)
	downloadsDir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(downloadsDir); err != nil {
		log.Printf("failed to ensure downloads dir: %v", err)
	}

	prober := resolver.NewProber()
	prober.SetTimeout(settings.GetProbeTimeout())
	resolverSvc := resolver.NewService(resolver.NewPlaylistLister(), prober, resolver.Options{
		MaxParallel:       settings.GetMaxParallelResolvers(),
		RequestsPerSecond: settings.GetResolverRate(),
	})
	manager := playlist.NewManager(resolverSvc, settings.AutomaticDownloadPolicy)
	downloadSvc := download.NewService(downloadsDir, settings.GetMaxParallelDownloads())

	// Create and setup UI
	ui.NewRootUI(myWindow, settings, manager, resolverSvc, downloadSvc)

	// Show and run
	myWindow.ShowAndRun()
}
