package ui

import (
	"log"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// PlaylistGroup stacks the rows of all open playlist sessions
type PlaylistGroup struct {
	rows []*PlaylistRow

	// UI components
	box         *fyne.Container
	placeholder *widget.Label
	container   *fyne.Container
}

// NewPlaylistGroup creates a new playlist group UI component
func NewPlaylistGroup() *PlaylistGroup {
	pg := &PlaylistGroup{}
	pg.createUI()
	return pg
}

func (pg *PlaylistGroup) createUI() {
	pg.placeholder = widget.NewLabel("Paste a playlist URL above to start")
	pg.placeholder.Alignment = fyne.TextAlignCenter
	pg.box = container.NewVBox(pg.placeholder)

	// Wrap rows in scroll container for many playlists
	pg.container = container.NewStack(container.NewVScroll(pg.box))
}

// Container returns the group's canvas object
func (pg *PlaylistGroup) Container() *fyne.Container {
	return pg.container
}

// Len returns the number of rows shown
func (pg *PlaylistGroup) Len() int {
	return len(pg.rows)
}

// AddRow appends a playlist row
func (pg *PlaylistGroup) AddRow(row *PlaylistRow) {
	pg.rows = append(pg.rows, row)
	pg.placeholder.Hide()
	pg.box.Add(row.Container())
}

// RemoveRow removes a playlist row if present
func (pg *PlaylistGroup) RemoveRow(row *PlaylistRow) {
	i := slices.Index(pg.rows, row)
	if i < 0 {
		return
	}
	pg.rows = slices.Delete(pg.rows, i, i+1)
	pg.box.Remove(row.Container())
	if len(pg.rows) == 0 {
		pg.placeholder.Show()
	}
	if row.Session() != nil {
		log.Printf("Removed playlist row %s", row.Session().ID())
	}
}

// RowForSession finds the row bound to a session id
func (pg *PlaylistGroup) RowForSession(sessionID string) (*PlaylistRow, bool) {
	for _, row := range pg.rows {
		if row.Session() != nil && row.Session().ID() == sessionID {
			return row, true
		}
	}
	return nil, false
}

// UpdateSessionDownloads refreshes the download tally of a session's row
func (pg *PlaylistGroup) UpdateSessionDownloads(sessionID string, tasks []*model.DownloadTask) {
	if row, ok := pg.RowForSession(sessionID); ok {
		row.UpdateDownloads(tasks)
	}
}
