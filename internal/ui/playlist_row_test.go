package ui

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"github.com/ytget/yt-playlist-loader/internal/config"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// fakeDownloader records the snapshots handed to DownloadSession
type fakeDownloader struct {
	mu        sync.Mutex
	snapshots []playlist.Snapshot
	maxPar    int
	dir       string
}

func (f *fakeDownloader) SetUpdateCallback(func(*model.DownloadTask)) {}

func (f *fakeDownloader) AddTask(url string, resolution model.Resolution) (*model.DownloadTask, error) {
	return &model.DownloadTask{URL: url, Resolution: resolution}, nil
}

func (f *fakeDownloader) DownloadSession(snap playlist.Snapshot) ([]*model.DownloadTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	var tasks []*model.DownloadTask
	for _, e := range snap.Entries {
		if e.State == model.LoadStateLoaded {
			tasks = append(tasks, &model.DownloadTask{SessionID: snap.ID, EntryID: e.ID, Resolution: e.SelectedResolution})
		}
	}
	return tasks, nil
}

func (f *fakeDownloader) GetTask(id string) (*model.DownloadTask, bool) { return nil, false }
func (f *fakeDownloader) GetAllTasks() []*model.DownloadTask { return nil }
func (f *fakeDownloader) GetSessionTasks(string) []*model.DownloadTask { return nil }
func (f *fakeDownloader) StopTask(id string) error { return nil }
func (f *fakeDownloader) SetMaxParallelDownloads(n int) { f.maxPar = n }
func (f *fakeDownloader) SetDownloadDirectory(dir string) { f.dir = dir }

func (f *fakeDownloader) calls() []playlist.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.snapshots)
}

// nopResolver never reports anything; tests drive sessions through Apply
type nopResolver struct{}

func (nopResolver) ResolvePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	return nil, model.ErrEmptyPlaylist
}

func (nopResolver) ResolveVideo(ctx context.Context, entryID, url string, report func(playlist.Transition)) {
}

func newRowSession(t *testing.T, row *PlaylistRow, policy playlist.Policy, offers ...[]model.Resolution) (*playlist.Session, []string) {
	t.Helper()

	session := playlist.NewSession("https://www.youtube.com/playlist?list=PLtest", nopResolver{},
		playlist.WithListener(row), playlist.WithPolicy(playlist.StaticPolicy(policy)))
	row.Bind(session)

	listing := model.NewPlaylist(session.URL())
	for i := range offers {
		listing.AddItem(model.PlaylistItem{VideoID: string(rune('a' + i)), URL: "https://youtu.be/" + string(rune('a'+i))})
	}
	ids, err := session.Populate(listing)
	if err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	return session, ids
}

func loadEntry(session *playlist.Session, id string, offers []model.Resolution) {
	session.Apply(playlist.Transition{EntryID: id, State: model.LoadStateLoading})
	session.Apply(playlist.Transition{EntryID: id, State: model.LoadStateLoaded, Resolutions: offers})
}

func TestPlaylistRow_StatusAndResolutions(t *testing.T) {
	test.NewApp()

	row := NewPlaylistRow(&fakeDownloader{}, nil, nil)
	session, ids := newRowSession(t, row, playlist.Policy{},
		[]model.Resolution{1080, 720}, []model.Resolution{480})

	if !row.downloadBtn.Disabled() {
		t.Error("download button should be disabled while entries are waiting")
	}

	loadEntry(session, ids[0], []model.Resolution{1080, 720})
	if got := row.statusLabel.Text; got != "Loading (1/2)" {
		t.Errorf("status label = %q, want %q", got, "Loading (1/2)")
	}
	want := []string{"1080p", "720p", "Audio Only"}
	if !slices.Equal(row.resolutionSelect.Options, want) {
		t.Errorf("select options = %v, want %v", row.resolutionSelect.Options, want)
	}
	if row.resolutionSelect.Disabled() {
		t.Error("select should be enabled once a video is loaded")
	}

	loadEntry(session, ids[1], []model.Resolution{480})
	if got := row.statusLabel.Text; got != "Complete (2/2)" {
		t.Errorf("status label = %q, want %q", got, "Complete (2/2)")
	}
	if row.downloadBtn.Disabled() {
		t.Error("download button should be enabled when every video is loaded")
	}
	if row.countsLabel.Text != (model.StateCounts{Loaded: 2}).String() {
		t.Errorf("counts label = %q", row.countsLabel.Text)
	}
}

func TestPlaylistRow_SelectResolutionAppliesToSession(t *testing.T) {
	test.NewApp()

	row := NewPlaylistRow(&fakeDownloader{}, nil, nil)
	session, ids := newRowSession(t, row, playlist.Policy{},
		[]model.Resolution{1080, 720}, []model.Resolution{480})
	loadEntry(session, ids[0], []model.Resolution{1080, 720})
	loadEntry(session, ids[1], []model.Resolution{480})

	row.resolutionSelect.SetSelected("720p")

	for _, e := range session.Entries() {
		switch e.ID {
		case ids[0]:
			if e.SelectedResolution != 720 {
				t.Errorf("entry a selected %s, want 720p", e.SelectedResolution)
			}
		case ids[1]:
			if e.SelectedResolution != 480 {
				t.Errorf("entry b selected %s, want 480p", e.SelectedResolution)
			}
		}
	}
}

func TestPlaylistRow_ManualDownload(t *testing.T) {
	test.NewApp()

	dl := &fakeDownloader{}
	var messages []string
	row := NewPlaylistRow(dl, func(m string) { messages = append(messages, m) }, nil)
	session, ids := newRowSession(t, row, playlist.Policy{},
		[]model.Resolution{720}, []model.Resolution{480})

	loadEntry(session, ids[0], []model.Resolution{720})
	row.onDownloadClick()
	if len(dl.calls()) != 0 {
		t.Fatal("download must not start while the playlist is loading")
	}
	if len(messages) == 0 {
		t.Error("expected a notification for a premature download")
	}

	loadEntry(session, ids[1], []model.Resolution{480})
	row.onDownloadClick()
	calls := dl.calls()
	if len(calls) != 1 || calls[0].ID != session.ID() {
		t.Fatalf("DownloadSession calls = %d, want 1 for %s", len(calls), session.ID())
	}
}

func TestPlaylistRow_AutomaticDownload(t *testing.T) {
	test.NewApp()

	dl := &fakeDownloader{}
	row := NewPlaylistRow(dl, nil, nil)
	policy := playlist.Policy{Enabled: true, Tier: model.Concrete(720)}
	session, ids := newRowSession(t, row, policy,
		[]model.Resolution{1080, 720}, []model.Resolution{720, 360})

	loadEntry(session, ids[0], []model.Resolution{1080, 720})
	if len(dl.calls()) != 0 {
		t.Fatal("automatic download fired before every video was loaded")
	}
	loadEntry(session, ids[1], []model.Resolution{720, 360})

	calls := dl.calls()
	if len(calls) != 1 {
		t.Fatalf("DownloadSession calls = %d, want 1", len(calls))
	}
	for _, e := range calls[0].Entries {
		if e.SelectedResolution != 720 {
			t.Errorf("entry %s selected %s, want 720p", e.ID, e.SelectedResolution)
		}
	}
	if row.resolutionSelect.Selected != "720p" {
		t.Errorf("select shows %q, want 720p", row.resolutionSelect.Selected)
	}

	// Later changes never fire a second time
	session.RemoveEntry(ids[1])
	if len(dl.calls()) != 1 {
		t.Errorf("DownloadSession calls = %d after removal, want 1", len(dl.calls()))
	}
}

func TestPlaylistRow_RemoveFailedCompletesPlaylist(t *testing.T) {
	test.NewApp()

	row := NewPlaylistRow(&fakeDownloader{}, nil, nil)
	session, ids := newRowSession(t, row, playlist.Policy{},
		[]model.Resolution{720}, nil)

	loadEntry(session, ids[0], []model.Resolution{720})
	session.Apply(playlist.Transition{EntryID: ids[1], State: model.LoadStateLoading})
	session.Apply(playlist.Transition{EntryID: ids[1], State: model.LoadStateFailed})

	if row.retryBtn.Hidden || row.removeFailedBtn.Hidden {
		t.Fatal("retry and remove buttons should be shown for a failed playlist")
	}

	row.onRemoveFailedClick()
	if session.Len() != 1 {
		t.Errorf("session has %d entries, want 1", session.Len())
	}
	if session.Status() != model.SessionStatusComplete {
		t.Errorf("status = %s, want Complete", session.Status())
	}
	if !row.retryBtn.Hidden || !row.removeFailedBtn.Hidden {
		t.Error("retry and remove buttons should hide once nothing has failed")
	}
}

func TestPlaylistGroup_RowLifecycle(t *testing.T) {
	test.NewApp()

	group := NewPlaylistGroup()
	row := NewPlaylistRow(&fakeDownloader{}, nil, group.RemoveRow)
	session, _ := newRowSession(t, row, playlist.Policy{}, []model.Resolution{720})
	group.AddRow(row)

	if group.Len() != 1 || group.placeholder.Visible() {
		t.Fatalf("group should show one row and hide the placeholder")
	}
	if got, ok := group.RowForSession(session.ID()); !ok || got != row {
		t.Error("RowForSession did not find the bound row")
	}

	group.UpdateSessionDownloads(session.ID(), []*model.DownloadTask{{Status: model.TaskStatusCompleted}})
	if row.downloadsLabel.Hidden {
		t.Error("download tally should be visible")
	}

	session.Close()
	if group.Len() != 0 || !group.placeholder.Visible() {
		t.Error("closing the session should remove its row")
	}
}

func TestSettingsDialog_Apply(t *testing.T) {
	app := test.NewApp()
	settings := config.NewSettings(app)
	window := test.NewWindow(nil)
	defer window.Close()

	saved := false
	sd := NewSettingsDialog(settings, window, func() { saved = true })
	sd.loadCurrentSettings()

	if !sd.autoQualitySelect.Disabled() {
		t.Error("quality select should be disabled while automatic download is off")
	}

	sd.downloadDirEntry.SetText("/tmp/playlists")
	sd.maxParallelEntry.SetText("4")
	sd.maxResolversEntry.SetText("not a number")
	sd.requestRateEntry.SetText("2.5")
	sd.probeTimeoutEntry.SetText("120")
	sd.autoDownloadCheck.SetChecked(true)
	sd.autoQualitySelect.SetSelected("480p")
	sd.onSave(true)

	if !saved {
		t.Error("onSaved was not called")
	}
	if got := settings.GetDownloadDirectory(); got != "/tmp/playlists" {
		t.Errorf("download dir = %q", got)
	}
	if got := settings.GetMaxParallelDownloads(); got != 4 {
		t.Errorf("max parallel downloads = %d, want 4", got)
	}
	if got := settings.GetMaxParallelResolvers(); got != config.DefaultMaxResolvers {
		t.Errorf("max parallel resolvers = %d, want default %d", got, config.DefaultMaxResolvers)
	}
	if got := settings.GetResolverRate(); got != 2.5 {
		t.Errorf("resolver rate = %v, want 2.5", got)
	}
	if got := settings.GetProbeTimeout(); got != 2*time.Minute {
		t.Errorf("probe timeout = %v, want 2m", got)
	}
	policy := settings.AutomaticDownloadPolicy()
	if !policy.Enabled || policy.Tier != model.Concrete(480) {
		t.Errorf("policy = %+v, want enabled at 480p", policy)
	}
}

func TestSettingsDialog_CancelKeepsValues(t *testing.T) {
	app := test.NewApp()
	settings := config.NewSettings(app)
	window := test.NewWindow(nil)
	defer window.Close()

	sd := NewSettingsDialog(settings, window, func() { t.Error("onSaved called on cancel") })
	sd.loadCurrentSettings()
	sd.maxParallelEntry.SetText("7")
	sd.onSave(false)

	if got := settings.GetMaxParallelDownloads(); got != config.DefaultMaxParallel {
		t.Errorf("max parallel downloads = %d, want default %d", got, config.DefaultMaxParallel)
	}
}
