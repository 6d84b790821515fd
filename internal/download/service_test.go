package download

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// fakeRunner records downloads; fail lists how many attempts per URL fail
type fakeRunner struct {
	mu       sync.Mutex
	fail     map[string]int
	attempts map[string]int
	block    bool
	delay    time.Duration
	active   int
	peak     int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: make(map[string]int), attempts: make(map[string]int)}
}

func (f *fakeRunner) Run(ctx context.Context, task *model.DownloadTask, dir string, onProgress func(ProgressUpdate)) (string, error) {
	f.mu.Lock()
	f.attempts[task.URL]++
	attempt := f.attempts[task.URL]
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	block, delay := f.block, f.delay
	failures := f.fail[task.URL]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	onProgress(ProgressUpdate{DownloadedBytes: 50, TotalBytes: 100, Title: "Fetched Title"})

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if attempt <= failures {
		return "", errors.New("HTTP Error 403: Forbidden")
	}
	return dir + "/" + task.Resolution.String() + ".mp4", nil
}

func newTestService(maxParallel int) (*Service, *fakeRunner) {
	service := NewService("/tmp/downloads", maxParallel)
	runner := newFakeRunner()
	service.SetRunner(runner)
	service.SetRetryPolicy(1, 0)
	return service, runner
}

func TestNewService(t *testing.T) {
	service := NewService("/tmp", 2)

	if service.downloadDir != "/tmp" {
		t.Errorf("Expected downloadDir to be '/tmp', got '%s'", service.downloadDir)
	}

	if service.maxParallel != 2 {
		t.Errorf("Expected maxParallel to be 2, got %d", service.maxParallel)
	}

	if len(service.tasks) != 0 {
		t.Errorf("Expected empty tasks map, got %d items", len(service.tasks))
	}

	if NewService("/tmp", 0).maxParallel != 1 {
		t.Error("Expected maxParallel to be clamped to 1")
	}
}

func TestAddTask(t *testing.T) {
	service, runner := newTestService(1)
	runner.block = true
	defer func() {
		for _, task := range service.GetAllTasks() {
			_ = service.StopTask(task.ID)
		}
		service.Wait()
	}()

	task1, err := service.AddTask("https://youtube.com/watch?v=test1", 720)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task1.URL != "https://youtube.com/watch?v=test1" {
		t.Errorf("Expected URL to be 'https://youtube.com/watch?v=test1', got '%s'", task1.URL)
	}

	if task1.Status != model.TaskStatusStarting {
		t.Errorf("Expected status to be Starting, got %s", task1.Status)
	}

	// Try to add duplicate task (should fail)
	_, err = service.AddTask("https://youtube.com/watch?v=test1", 720)
	if err == nil {
		t.Error("Expected error for duplicate URL, got nil")
	}

	// Second task waits for a free slot
	task2, err := service.AddTask("https://youtube.com/watch?v=test2", model.AudioOnly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task2.Status != model.TaskStatusPending {
		t.Errorf("Expected second task to be Pending, got %s", task2.Status)
	}
}

func TestGetTask(t *testing.T) {
	service, _ := newTestService(1)

	task, err := service.AddTask("https://youtube.com/watch?v=test", 480)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	service.Wait()

	retrievedTask, exists := service.GetTask(task.ID)
	if !exists {
		t.Fatal("Expected task to exist")
	}

	if retrievedTask.Status != model.TaskStatusCompleted {
		t.Errorf("Expected Completed, got %s", retrievedTask.Status)
	}
	if retrievedTask.OutputPath != "/tmp/downloads/480p.mp4" {
		t.Errorf("Unexpected output path %q", retrievedTask.OutputPath)
	}
	if retrievedTask.Title != "Fetched Title" {
		t.Errorf("Expected title from progress, got %q", retrievedTask.Title)
	}

	_, exists = service.GetTask("non-existing-id")
	if exists {
		t.Error("Expected task to not exist")
	}
}

func TestGetAllTasks(t *testing.T) {
	service, _ := newTestService(2)

	if tasks := service.GetAllTasks(); len(tasks) != 0 {
		t.Errorf("Expected 0 tasks, got %d", len(tasks))
	}

	task1, _ := service.AddTask("https://youtube.com/watch?v=test1", 720)
	task2, _ := service.AddTask("https://youtube.com/watch?v=test2", 720)
	service.Wait()

	tasks := service.GetAllTasks()
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != task1.ID || tasks[1].ID != task2.ID {
		t.Error("Expected tasks in the order they were added")
	}
}

func TestMaxParallel(t *testing.T) {
	service, runner := newTestService(2)
	runner.delay = 20 * time.Millisecond

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if _, err := service.AddTask("https://youtube.com/watch?v="+id, 360); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}
	service.Wait()

	if runner.peak > 2 {
		t.Errorf("Expected at most 2 concurrent downloads, got %d", runner.peak)
	}
	for _, task := range service.GetAllTasks() {
		if task.Status != model.TaskStatusCompleted {
			t.Errorf("Task %s ended in %s", task.URL, task.Status)
		}
	}
}

func TestRetry(t *testing.T) {
	service, runner := newTestService(1)
	runner.fail["https://youtube.com/watch?v=flaky"] = 1
	runner.fail["https://youtube.com/watch?v=broken"] = 5

	flaky, _ := service.AddTask("https://youtube.com/watch?v=flaky", 720)
	broken, _ := service.AddTask("https://youtube.com/watch?v=broken", 720)
	service.Wait()

	if got, _ := service.GetTask(flaky.ID); got.Status != model.TaskStatusCompleted {
		t.Errorf("Expected flaky download to succeed on retry, got %s", got.Status)
	}

	got, _ := service.GetTask(broken.ID)
	if got.Status != model.TaskStatusError {
		t.Errorf("Expected Error, got %s", got.Status)
	}
	if !strings.Contains(got.LastError, "403") {
		t.Errorf("Expected last error to be kept, got %q", got.LastError)
	}
	if runner.attempts["https://youtube.com/watch?v=broken"] != 2 {
		t.Errorf("Expected 2 attempts, got %d", runner.attempts["https://youtube.com/watch?v=broken"])
	}
}

func TestStopTask(t *testing.T) {
	service, runner := newTestService(1)
	runner.block = true

	running, _ := service.AddTask("https://youtube.com/watch?v=running", 720)
	pending, _ := service.AddTask("https://youtube.com/watch?v=pending", 720)

	if err := service.StopTask(pending.ID); err != nil {
		t.Fatalf("StopTask(pending): %v", err)
	}
	if err := service.StopTask(running.ID); err != nil {
		t.Fatalf("StopTask(running): %v", err)
	}
	service.Wait()

	for _, id := range []string{running.ID, pending.ID} {
		if got, _ := service.GetTask(id); got.Status != model.TaskStatusStopped {
			t.Errorf("Expected %s to be Stopped, got %s", id, got.Status)
		}
	}

	if err := service.StopTask(running.ID); err == nil {
		t.Error("Expected error when stopping a finished task")
	}
	if err := service.StopTask("missing"); err == nil {
		t.Error("Expected error for unknown task")
	}
}

func loadedEntry(t *testing.T, url string, offers []model.Resolution, selected model.Resolution) *model.VideoEntry {
	t.Helper()
	e := model.NewVideoEntry(url, "")
	e.SetState(model.LoadStateLoaded)
	if err := e.SetAvailableResolutions(offers); err != nil {
		t.Fatalf("SetAvailableResolutions: %v", err)
	}
	if !selected.IsZero() {
		if err := e.SelectResolution(selected); err != nil {
			t.Fatalf("SelectResolution: %v", err)
		}
	}
	return e
}

func TestDownloadSession(t *testing.T) {
	service, _ := newTestService(2)

	failed := model.NewVideoEntry("https://youtube.com/watch?v=failed", "")
	failed.SetState(model.LoadStateFailed)

	snap := playlist.Snapshot{
		ID: "playlist-1",
		Entries: []*model.VideoEntry{
			loadedEntry(t, "https://youtube.com/watch?v=a", []model.Resolution{1080, 720, model.AudioOnly}, 720),
			loadedEntry(t, "https://youtube.com/watch?v=b", []model.Resolution{1080, 480, model.AudioOnly}, 0),
			failed,
		},
	}

	tasks, err := service.DownloadSession(snap)
	if err != nil {
		t.Fatalf("DownloadSession: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Resolution != 720 || tasks[1].Resolution != 1080 {
		t.Errorf("Unexpected resolutions %s / %s", tasks[0].Resolution, tasks[1].Resolution)
	}
	if tasks[0].EntryID != snap.Entries[0].ID {
		t.Errorf("Expected entry id to be carried over, got %q", tasks[0].EntryID)
	}

	service.Wait()
	sessionTasks := service.GetSessionTasks("playlist-1")
	if len(sessionTasks) != 2 {
		t.Errorf("Expected 2 session tasks, got %d", len(sessionTasks))
	}
	if len(service.GetSessionTasks("playlist-2")) != 0 {
		t.Error("Expected no tasks for another session")
	}
}

func TestDownloadSession_NothingToDownload(t *testing.T) {
	service, _ := newTestService(1)

	if _, err := service.DownloadSession(playlist.Snapshot{ID: "p", Terminated: true}); !errors.Is(err, model.ErrSessionTerminated) {
		t.Errorf("Expected ErrSessionTerminated, got %v", err)
	}

	waiting := model.NewVideoEntry("https://youtube.com/watch?v=w", "")
	_, err := service.DownloadSession(playlist.Snapshot{ID: "p", Entries: []*model.VideoEntry{waiting}})
	if !errors.Is(err, model.ErrNoResolutionsAvailable) {
		t.Errorf("Expected ErrNoResolutionsAvailable, got %v", err)
	}
}

func TestDownloadSession_ReportsSkippedEntries(t *testing.T) {
	service, runner := newTestService(1)
	runner.block = true
	defer func() {
		for _, task := range service.GetAllTasks() {
			_ = service.StopTask(task.ID)
		}
		service.Wait()
	}()

	url := "https://youtube.com/watch?v=dup"
	snap := playlist.Snapshot{
		ID: "playlist-dup",
		Entries: []*model.VideoEntry{
			loadedEntry(t, url, []model.Resolution{720, model.AudioOnly}, 720),
			loadedEntry(t, url, []model.Resolution{720, model.AudioOnly}, 720),
			loadedEntry(t, "https://youtube.com/watch?v=other", []model.Resolution{480}, 480),
		},
	}

	tasks, err := service.DownloadSession(snap)
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 queued tasks, got %d", len(tasks))
	}
	if err == nil {
		t.Fatal("Expected an error for the duplicate entry")
	}
	if !strings.Contains(err.Error(), url) {
		t.Errorf("Expected error to name %s, got %v", url, err)
	}
	if got := len(service.GetSessionTasks("playlist-dup")); got != 2 {
		t.Errorf("Expected 2 session tasks, got %d", got)
	}
}

func TestUpdateCallback(t *testing.T) {
	service, _ := newTestService(1)

	var mu sync.Mutex
	seen := make(map[model.TaskStatus]bool)
	service.SetUpdateCallback(func(task *model.DownloadTask) {
		mu.Lock()
		defer mu.Unlock()
		seen[task.Status] = true
	})

	if _, err := service.AddTask("https://youtube.com/watch?v=test", 720); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	service.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !seen[model.TaskStatusDownloading] || !seen[model.TaskStatusCompleted] {
		t.Errorf("Expected Downloading and Completed updates, got %v", seen)
	}
}

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		res      model.Resolution
		expected string
	}{
		{1080, "bestvideo[height<=1080]+bestaudio/best[height<=1080]"},
		{360, "bestvideo[height<=360]+bestaudio/best[height<=360]"},
		{model.AudioOnly, "bestaudio/best"},
		{0, "bestvideo+bestaudio/best"},
	}

	for _, test := range tests {
		if got := FormatSelector(test.res); got != test.expected {
			t.Errorf("FormatSelector(%v) = %q, expected %q", test.res, got, test.expected)
		}
	}
}

func TestGenerateTaskID(t *testing.T) {
	id1 := generateTaskID()
	id2 := generateTaskID()

	if id1 == id2 {
		t.Error("Expected different task IDs")
	}

	if !strings.HasPrefix(id1, "task-") {
		t.Errorf("Expected ID to start with 'task-', got: %s", id1)
	}

	// Check UUID format (task- + 36 chars for UUID)
	if len(id1) != len("task-")+36 {
		t.Errorf("Expected ID length %d, got %d for ID: %s", len("task-")+36, len(id1), id1)
	}
}
