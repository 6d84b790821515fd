package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-playlist-loader/internal/config"
	"github.com/ytget/yt-playlist-loader/internal/download"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/platform"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// UI constants
const (
	RootUIUpdateDebounce = 100 * time.Millisecond
	RootListingTimeout   = 2 * time.Minute
)

// ResolverTuner adjusts a running resolver
type ResolverTuner interface {
	SetRequestsPerSecond(rps float64)
}

// RootUI represents the main UI structure
type RootUI struct {
	window      fyne.Window
	urlEntry    *widget.Entry
	openBtn     *widget.Button
	taskList    *widget.List
	settings    *config.Settings
	manager     *playlist.Manager
	resolverSvc ResolverTuner
	downloadSvc download.Downloader

	group *PlaylistGroup

	// Download tasks in arrival order
	tasksMutex sync.Mutex
	tasks      []*model.DownloadTask

	// UI update debouncing
	refreshLimit rate.Sometimes

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite
	notificationTimer     *time.Timer
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, settings *config.Settings, manager *playlist.Manager, resolverSvc ResolverTuner, downloadSvc download.Downloader) *RootUI {
	// Ensure directory exists
	if err := platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory()); err != nil {
		log.Printf("Failed to create downloads dir: %v", err)
	}

	ui := &RootUI{
		window:       window,
		settings:     settings,
		manager:      manager,
		resolverSvc:  resolverSvc,
		downloadSvc:  downloadSvc,
		refreshLimit: rate.Sometimes{Interval: RootUIUpdateDebounce},
	}

	window.SetTitle(AppTitle)

	// Set up callback for download updates
	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)
	window.SetOnClosed(manager.CloseAll)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder("Enter playlist URL...")
	ui.urlEntry.Validator = validateURL
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onOpenClick()
	}

	ui.openBtn = widget.NewButton("Load", ui.onOpenClick)
	ui.openBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	folderBtn := widget.NewButton(IconFolder, ui.onOpenFolder)
	folderBtn.Importance = widget.LowImportance

	topPanel := container.NewBorder(nil, nil, container.NewHBox(settingsBtn, folderBtn), ui.openBtn, ui.urlEntry)

	// Create notification panel under URL input (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationLabel.Truncation = fyne.TextTruncateEllipsis
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewBorder(nil, nil, ui.notificationSpinner, nil, ui.notificationLabel)
	ui.notificationContainer.Hide()

	topCombined := container.NewVBox(topPanel, ui.notificationContainer)

	ui.group = NewPlaylistGroup()

	ui.taskList = widget.NewList(
		func() int {
			ui.tasksMutex.Lock()
			defer ui.tasksMutex.Unlock()
			return len(ui.tasks)
		},
		func() fyne.CanvasObject {
			row := NewTaskRow(nil)
			row.SetOnStop(ui.onStopTask)
			return row
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			ui.tasksMutex.Lock()
			if id < 0 || id >= len(ui.tasks) {
				ui.tasksMutex.Unlock()
				return
			}
			task := ui.tasks[id]
			ui.tasksMutex.Unlock()

			if row, ok := obj.(*TaskRow); ok {
				row.UpdateTask(task)
			}
		},
	)

	split := container.NewVSplit(ui.group.Container(), ui.taskList)
	split.SetOffset(0.6)

	ui.window.SetContent(container.NewBorder(topCombined, nil, nil, nil, split))
	log.Printf("UI setup completed successfully")
}

// onOpenClick opens a session for the entered playlist URL and starts loading it
func (ui *RootUI) onOpenClick() {
	urlText := cleanText(ui.urlEntry.Text)
	if urlText == "" {
		ui.showNotification("Please enter a playlist URL", false)
		return
	}
	if err := validateURL(urlText); err != nil {
		ui.showNotification("Invalid URL: "+err.Error(), false)
		return
	}

	row := NewPlaylistRow(ui.downloadSvc, func(msg string) { ui.showNotification(msg, false) }, ui.group.RemoveRow)
	session, err := ui.manager.Open(urlText, row)
	if err != nil {
		ui.showNotification("Error: "+err.Error(), false)
		return
	}
	row.Bind(session)
	ui.group.AddRow(row)
	ui.urlEntry.SetText("")

	log.Printf("Processing playlist URL: %s", urlText)
	ui.showNotification("Loading playlist...", true)

	go func() {
		// Bounds the listing only; videos resolve until the session is closed
		ctx, cancel := context.WithTimeout(context.Background(), RootListingTimeout)
		defer cancel()

		if err := session.Load(ctx); err != nil {
			ui.showNotification(fmt.Sprintf("Failed to load playlist: %v", err), false)
			return
		}
		ui.showNotification(fmt.Sprintf("Playlist loaded: %d videos", session.Len()), false)
	}()
}

// onTaskUpdate is called by the download service from its goroutines
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	ui.tasksMutex.Lock()
	found := false
	for i, t := range ui.tasks {
		if t.ID == task.ID {
			ui.tasks[i] = task
			found = true
			break
		}
	}
	if !found {
		ui.tasks = append(ui.tasks, task)
	}
	ui.tasksMutex.Unlock()

	// Progress ticks are throttled, state changes are always shown
	if !found || task.Status != model.TaskStatusDownloading {
		ui.refreshTasks(task.SessionID)
		return
	}
	ui.refreshLimit.Do(func() { ui.refreshTasks(task.SessionID) })
}

func (ui *RootUI) refreshTasks(sessionID string) {
	var sessionTasks []*model.DownloadTask
	if sessionID != "" {
		sessionTasks = ui.downloadSvc.GetSessionTasks(sessionID)
	}
	fyne.Do(func() {
		ui.taskList.Refresh()
		if sessionID != "" {
			ui.group.UpdateSessionDownloads(sessionID, sessionTasks)
		}
	})
}

func (ui *RootUI) onStopTask(taskID string) {
	if err := ui.downloadSvc.StopTask(taskID); err != nil {
		log.Printf("Failed to stop task %s: %v", taskID, err)
		ui.showNotification("Error: "+err.Error(), false)
	}
}

func (ui *RootUI) onOpenFolder() {
	dir := ui.settings.GetDownloadDirectory()
	if err := platform.OpenDirectory(dir); err != nil {
		log.Printf("Failed to open %s: %v", dir, err)
		ui.showNotification("Cannot open downloads folder: "+err.Error(), false)
	}
}

// onShowSettings shows the settings dialog and applies what can change live
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, func() {
		ui.downloadSvc.SetDownloadDirectory(ui.settings.GetDownloadDirectory())
		ui.downloadSvc.SetMaxParallelDownloads(ui.settings.GetMaxParallelDownloads())
		if ui.resolverSvc != nil {
			ui.resolverSvc.SetRequestsPerSecond(ui.settings.GetResolverRate())
		}
		ui.showNotification("Settings saved", false)
	})
}

// showNotification displays a message in the notification panel under the URL input.
// When spinning is true, a spinner is shown to indicate background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	if ui.notificationLabel == nil || ui.notificationContainer == nil || ui.notificationSpinner == nil {
		return
	}
	message = strings.TrimSpace(message)
	fyne.Do(func() {
		ui.notificationLabel.SetText(message)
		if spinning {
			ui.notificationSpinner.Show()
		} else {
			ui.notificationSpinner.Hide()
		}
		ui.notificationContainer.Show()
		ui.notificationContainer.Refresh()

		if ui.notificationTimer != nil {
			ui.notificationTimer.Stop()
		}
		if !spinning {
			ui.notificationTimer = time.AfterFunc(NotificationAutoHide, ui.hideNotification)
		}
	})
}

// hideNotification hides the notification panel.
func (ui *RootUI) hideNotification() {
	if ui.notificationContainer == nil || ui.notificationSpinner == nil {
		return
	}
	fyne.Do(func() {
		ui.notificationSpinner.Hide()
		ui.notificationContainer.Hide()
	})
}
