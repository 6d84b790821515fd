package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-playlist-loader/internal/download"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// PlaylistRow renders one playlist session and listens to its changes. Every
// listener callback hops onto the UI goroutine with fyne.Do.
type PlaylistRow struct {
	session     *playlist.Session
	downloadSvc download.Downloader

	titleLabel       *widget.Label
	statusLabel      *widget.Label
	countsLabel      *widget.Label
	downloadsLabel   *widget.Label
	resolutionSelect *widget.Select
	downloadBtn      *widget.Button
	retryBtn         *widget.Button
	removeFailedBtn  *widget.Button
	closeBtn         *widget.Button
	container        *fyne.Container

	// set while the select is updated programmatically
	updatingSelect bool

	onNotify  func(message string)
	onRemoved func(row *PlaylistRow)
}

var _ playlist.Listener = (*PlaylistRow)(nil)

// NewPlaylistRow creates the widgets of a row. Bind must be called before the
// session starts loading.
func NewPlaylistRow(downloadSvc download.Downloader, onNotify func(string), onRemoved func(*PlaylistRow)) *PlaylistRow {
	pr := &PlaylistRow{
		downloadSvc: downloadSvc,
		onNotify:    onNotify,
		onRemoved:   onRemoved,
	}
	pr.createUI()
	return pr
}

// Bind attaches the session this row displays
func (pr *PlaylistRow) Bind(session *playlist.Session) {
	pr.session = session
	pr.titleLabel.SetText(cleanText(session.URL()))
}

// Session returns the bound session
func (pr *PlaylistRow) Session() *playlist.Session {
	return pr.session
}

// Container returns the row's canvas object
func (pr *PlaylistRow) Container() *fyne.Container {
	return pr.container
}

func (pr *PlaylistRow) createUI() {
	pr.titleLabel = widget.NewLabel("")
	pr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	pr.titleLabel.Truncation = fyne.TextTruncateEllipsis

	pr.statusLabel = widget.NewLabel(model.SessionStatusWaiting.Label())
	pr.statusLabel.Alignment = fyne.TextAlignTrailing

	pr.countsLabel = widget.NewLabel(model.StateCounts{}.String())
	pr.countsLabel.TextStyle = fyne.TextStyle{Monospace: true}

	pr.downloadsLabel = widget.NewLabel("")
	pr.downloadsLabel.Hide()

	pr.resolutionSelect = widget.NewSelect(nil, pr.onResolutionSelected)
	pr.resolutionSelect.PlaceHolder = SelectPlaceholder
	pr.resolutionSelect.Disable()

	pr.downloadBtn = widget.NewButton("Download", pr.onDownloadClick)
	pr.downloadBtn.Importance = widget.HighImportance
	pr.downloadBtn.Disable()

	pr.retryBtn = widget.NewButton(IconRetry+" Retry", pr.onRetryClick)
	pr.retryBtn.Hide()

	pr.removeFailedBtn = widget.NewButton("Remove failed", pr.onRemoveFailedClick)
	pr.removeFailedBtn.Hide()

	pr.closeBtn = widget.NewButton(IconClose, pr.onCloseClick)
	pr.closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, nil, container.NewHBox(pr.statusLabel, pr.closeBtn), pr.titleLabel)
	resolutionBox := container.NewGridWrap(fyne.NewSize(ResolutionWidth, pr.resolutionSelect.MinSize().Height), pr.resolutionSelect)
	actions := container.NewHBox(resolutionBox, pr.downloadBtn, pr.retryBtn, pr.removeFailedBtn)

	pr.container = container.NewVBox(
		header,
		pr.countsLabel,
		actions,
		pr.downloadsLabel,
		widget.NewSeparator(),
	)
}

// OnStatusChanged updates the status headline and counters
func (pr *PlaylistRow) OnStatusChanged(status model.SessionStatus, counts model.StateCounts) {
	fyne.Do(func() {
		pr.applyStatus(status, counts)
	})
}

func (pr *PlaylistRow) applyStatus(status model.SessionStatus, counts model.StateCounts) {
	if pr.session != nil {
		if title := pr.session.Title(); title != "" {
			pr.titleLabel.SetText(cleanText(title))
		}
	}

	pr.statusLabel.SetText(statusText(status, counts))
	pr.statusLabel.Importance = statusImportance(status)
	pr.statusLabel.Refresh()
	pr.countsLabel.SetText(counts.String())

	if status == model.SessionStatusFailed {
		pr.retryBtn.Show()
	} else {
		pr.retryBtn.Hide()
	}
	if counts.Failed > 0 {
		pr.removeFailedBtn.Show()
	} else {
		pr.removeFailedBtn.Hide()
	}
	if counts.Loaded > 0 && counts.Waiting == 0 && counts.Loading == 0 {
		pr.downloadBtn.Enable()
	} else {
		pr.downloadBtn.Disable()
	}
}

// OnAvailableResolutionsChanged rebuilds the resolution selector
func (pr *PlaylistRow) OnAvailableResolutionsChanged(resolutions []model.Resolution) {
	fyne.Do(func() {
		pr.applyResolutions(resolutions)
	})
}

func (pr *PlaylistRow) applyResolutions(resolutions []model.Resolution) {
	options := resolutionOptions(resolutions)

	pr.updatingSelect = true
	defer func() { pr.updatingSelect = false }()

	selected := pr.resolutionSelect.Selected
	pr.resolutionSelect.SetOptions(options)
	if selected != "" && !slices.Contains(options, selected) {
		pr.resolutionSelect.ClearSelected()
	}

	if len(options) == 0 {
		pr.resolutionSelect.Disable()
	} else {
		pr.resolutionSelect.Enable()
	}
}

// OnAutomaticDownloadFired queues the playlist with the download service.
// The session has already applied the configured quality.
func (pr *PlaylistRow) OnAutomaticDownloadFired(session *playlist.Session) {
	snap := session.Snapshot()
	tasks, err := pr.downloadSvc.DownloadSession(snap)
	if len(tasks) == 0 {
		log.Printf("Automatic download failed for %s: %v", snap.ID, err)
		pr.notify(fmt.Sprintf("Automatic download failed: %v", err))
		return
	}
	pr.notify(startedMessage("Automatic download started", len(tasks), err))
	pr.refreshSelection(snap)
}

// OnSessionTerminated removes the row
func (pr *PlaylistRow) OnSessionTerminated() {
	fyne.Do(func() {
		if pr.onRemoved != nil {
			pr.onRemoved(pr)
		}
	})
}

// UpdateDownloads refreshes the download tally of this playlist
func (pr *PlaylistRow) UpdateDownloads(tasks []*model.DownloadTask) {
	summary := taskSummary(tasks)
	pr.downloadsLabel.SetText(summary)
	if summary == "" {
		pr.downloadsLabel.Hide()
	} else {
		pr.downloadsLabel.Show()
	}
}

// refreshSelection shows the resolution shared by every Loaded entry, if any
func (pr *PlaylistRow) refreshSelection(snap playlist.Snapshot) {
	var shared model.Resolution
	for _, e := range snap.Entries {
		if e.State != model.LoadStateLoaded {
			continue
		}
		if shared.IsZero() {
			shared = e.SelectedResolution
		} else if e.SelectedResolution != shared {
			return
		}
	}
	if shared.IsZero() {
		return
	}
	fyne.Do(func() {
		pr.updatingSelect = true
		pr.resolutionSelect.SetSelected(shared.String())
		pr.updatingSelect = false
	})
}

func (pr *PlaylistRow) onResolutionSelected(label string) {
	if pr.updatingSelect || label == "" || pr.session == nil {
		return
	}

	r, err := model.ParseResolution(label)
	if err != nil {
		pr.notify(err.Error())
		return
	}
	if err := pr.session.SelectResolution(r); err != nil {
		log.Printf("Failed to select %s for %s: %v", label, pr.session.ID(), err)
		pr.notify(fmt.Sprintf("Cannot select %s: %v", label, err))
		return
	}
	log.Printf("Selected %s for playlist %s", label, pr.session.ID())
}

func (pr *PlaylistRow) onDownloadClick() {
	if pr.session == nil {
		return
	}
	if !pr.session.ReadyForDownload() {
		pr.notify("Playlist is still loading")
		return
	}

	tasks, err := pr.downloadSvc.DownloadSession(pr.session.Snapshot())
	if len(tasks) == 0 {
		pr.notify(fmt.Sprintf("Download failed: %v", err))
		return
	}
	pr.notify(startedMessage("Download started", len(tasks), err))
}

func (pr *PlaylistRow) onRetryClick() {
	if pr.session == nil {
		return
	}
	session := pr.session
	go func() {
		if err := session.RetryFailed(context.Background()); err != nil && !errors.Is(err, model.ErrLoadInProgress) {
			pr.notify(fmt.Sprintf("Retry failed: %v", err))
		}
	}()
}

func (pr *PlaylistRow) onRemoveFailedClick() {
	if pr.session == nil {
		return
	}
	removed := 0
	for _, e := range pr.session.Entries() {
		if e.State == model.LoadStateFailed && pr.session.RemoveEntry(e.ID) {
			removed++
		}
	}
	log.Printf("Removed %d failed videos from %s", removed, pr.session.ID())
}

func (pr *PlaylistRow) onCloseClick() {
	if pr.session == nil {
		return
	}
	pr.session.Close()
}

func (pr *PlaylistRow) notify(message string) {
	if pr.onNotify != nil {
		pr.onNotify(message)
	}
}
