package ui

import "time"

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconFolder   = "📁"
	IconClose    = "×"
	IconRetry    = "↻"
	IconStop     = "■"
	IconError    = "❌"
)

// Text fragments
const (
	AppTitle            = "YT Playlist Loader"
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
	SelectPlaceholder   = "Resolution"
)

// Layout sizing
const (
	StatusLabelWidth  float32 = 84
	PercentLabelWidth float32 = 48
	ResolutionWidth   float32 = 120

	RowMinWidth  float32 = 400
	RowMinHeight float32 = 64

	SettingsDialogWidth  float32 = 500
	SettingsDialogHeight float32 = 460
)

// Notification behavior
const (
	NotificationAutoHide = 5 * time.Second
)

// Range hints shown in the settings dialog
const (
	MaxParallelDownloadsHint = "1-10"
	MaxParallelResolversHint = "1-32"
	RequestsPerSecondHint    = "e.g. 4"
	ProbeTimeoutHint         = "seconds, e.g. 45"
)
