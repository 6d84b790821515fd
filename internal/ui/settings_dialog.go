package ui

import (
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-playlist-loader/internal/config"
	"github.com/ytget/yt-playlist-loader/internal/model"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog
	onSaved  func()

	// UI components
	downloadDirEntry  *widget.Entry
	maxParallelEntry  *widget.Entry
	maxResolversEntry *widget.Entry
	requestRateEntry  *widget.Entry
	probeTimeoutEntry *widget.Entry
	autoDownloadCheck *widget.Check
	autoQualitySelect *widget.Select
}

// ShowSettingsDialog creates and shows the settings dialog. onSaved runs
// after the values have been persisted.
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, onSaved func()) {
	NewSettingsDialog(settings, window, onSaved).Show()
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings: settings,
		window:   window,
		onSaved:  onSaved,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

func (sd *SettingsDialog) createUI() {
	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")

	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder(MaxParallelDownloadsHint)

	sd.maxResolversEntry = widget.NewEntry()
	sd.maxResolversEntry.SetPlaceHolder(MaxParallelResolversHint)

	sd.requestRateEntry = widget.NewEntry()
	sd.requestRateEntry.SetPlaceHolder(RequestsPerSecondHint)

	sd.probeTimeoutEntry = widget.NewEntry()
	sd.probeTimeoutEntry.SetPlaceHolder(ProbeTimeoutHint)

	sd.autoQualitySelect = widget.NewSelect(tierOptions(sd.settings.GetQualityTierOptions()), nil)
	sd.autoDownloadCheck = widget.NewCheck("Download automatically when a playlist finishes loading", func(on bool) {
		if on {
			sd.autoQualitySelect.Enable()
		} else {
			sd.autoQualitySelect.Disable()
		}
	})

	form := container.NewVBox(
		widget.NewLabel("Download Settings"),
		widget.NewSeparator(),

		widget.NewLabel("Download Directory:"),
		downloadDirRow,

		widget.NewLabel("Max Parallel Downloads:"),
		sd.maxParallelEntry,

		widget.NewSeparator(),
		widget.NewLabel("Playlist Loading"),
		widget.NewSeparator(),

		widget.NewLabel("Max Parallel Lookups (applies on restart):"),
		sd.maxResolversEntry,

		widget.NewLabel("Lookups Per Second:"),
		sd.requestRateEntry,

		widget.NewLabel("Lookup Timeout (applies on restart):"),
		sd.probeTimeoutEntry,

		sd.autoDownloadCheck,
		widget.NewLabel("Automatic Download Quality:"),
		sd.autoQualitySelect,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		form,
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelDownloads()))
	sd.maxResolversEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelResolvers()))
	sd.requestRateEntry.SetText(strconv.FormatFloat(sd.settings.GetResolverRate(), 'f', -1, 64))
	sd.probeTimeoutEntry.SetText(strconv.Itoa(int(sd.settings.GetProbeTimeout() / time.Second)))
	sd.autoQualitySelect.SetSelected(sd.settings.GetAutomaticDownloadQuality().String())
	sd.autoDownloadCheck.SetChecked(sd.settings.GetAutomaticDownload())
	if sd.autoDownloadCheck.Checked {
		sd.autoQualitySelect.Enable()
	} else {
		sd.autoQualitySelect.Disable()
	}
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	sd.apply()
	if sd.onSaved != nil {
		sd.onSaved()
	}
}

// apply validates the form and persists every valid field. Invalid numbers
// leave the stored value unchanged.
func (sd *SettingsDialog) apply() {
	if dir := strings.TrimSpace(sd.downloadDirEntry.Text); dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(sd.maxParallelEntry.Text)); err == nil {
		sd.settings.SetMaxParallelDownloads(n)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(sd.maxResolversEntry.Text)); err == nil {
		sd.settings.SetMaxParallelResolvers(n)
	}

	if rps, err := strconv.ParseFloat(strings.TrimSpace(sd.requestRateEntry.Text), 64); err == nil {
		sd.settings.SetResolverRate(rps)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(sd.probeTimeoutEntry.Text)); err == nil {
		sd.settings.SetProbeTimeout(time.Duration(n) * time.Second)
	}

	sd.settings.SetAutomaticDownload(sd.autoDownloadCheck.Checked)
	if tier, err := model.ParseQualityTier(sd.autoQualitySelect.Selected); err == nil {
		sd.settings.SetAutomaticDownloadQuality(tier)
	}
}
