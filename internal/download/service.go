package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
	"github.com/ytget/yt-playlist-loader/internal/selector"
)

// Download defaults
const (
	DefaultFilenameTemplate = "%(title)s.%(ext)s"
	DefaultMaxRetries       = 1
	DefaultRetryDelay       = 2 * time.Second
	ProgressInterval        = 500 * time.Millisecond
)

// ProgressUpdate is a progress report from a running download
type ProgressUpdate struct {
	DownloadedBytes int64
	TotalBytes      int64
	Started         time.Time
	ETA             time.Duration
	Title           string
}

// Runner performs a single download attempt
type Runner interface {
	Run(ctx context.Context, task *model.DownloadTask, dir string, onProgress func(ProgressUpdate)) (string, error)
}

// Service handles download operations
type Service struct {
	tasks       map[string]*model.DownloadTask
	order       []string
	cancels     map[string]context.CancelFunc
	tasksMutex  sync.RWMutex
	running     sync.WaitGroup
	maxParallel int
	activeCount int
	downloadDir string
	maxRetries  int
	retryDelay  time.Duration
	runner      Runner
	onUpdate    func(*model.DownloadTask) // callback for UI updates
}

// NewService creates a new download service
func NewService(downloadDir string, maxParallel int) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		tasks:       make(map[string]*model.DownloadTask),
		cancels:     make(map[string]context.CancelFunc),
		maxParallel: maxParallel,
		downloadDir: downloadDir,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		runner:      ytdlpRunner{},
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.onUpdate = callback
}

// SetRunner replaces the yt-dlp runner
func (s *Service) SetRunner(r Runner) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.runner = r
}

// SetRetryPolicy configures how often and after which delay failed downloads are retried
func (s *Service) SetRetryPolicy(maxRetries int, delay time.Duration) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.maxRetries = max(maxRetries, 0)
	s.retryDelay = delay
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Service) SetMaxParallelDownloads(n int) {
	s.tasksMutex.Lock()
	s.maxParallel = max(n, 1)
	s.tasksMutex.Unlock()
	s.startNextPendingTask()
}

// SetDownloadDirectory sets the download directory for tasks started afterwards
func (s *Service) SetDownloadDirectory(dir string) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.downloadDir = dir
}

// AddTask adds a single download task
func (s *Service) AddTask(url string, resolution model.Resolution) (*model.DownloadTask, error) {
	return s.addTask(&model.DownloadTask{URL: url, Resolution: resolution})
}

// DownloadSession queues one task per Loaded entry of a playlist snapshot.
// Entries without a selection get their highest offered resolution.
// Entries that cannot be queued are skipped; their errors are joined and
// returned alongside whatever tasks were queued.
func (s *Service) DownloadSession(snap playlist.Snapshot) ([]*model.DownloadTask, error) {
	if snap.Terminated {
		return nil, fmt.Errorf("download %s: %w", snap.ID, model.ErrSessionTerminated)
	}

	var tasks []*model.DownloadTask
	var errs []error
	for _, e := range snap.Entries {
		if e.State != model.LoadStateLoaded {
			continue
		}

		res := e.SelectedResolution
		if res.IsZero() {
			var err error
			res, err = selector.Resolve(model.HighestQuality, e.AvailableResolutions)
			if err != nil {
				res = model.AudioOnly
			}
		}

		task, err := s.addTask(&model.DownloadTask{
			SessionID:  snap.ID,
			EntryID:    e.ID,
			URL:        e.URL,
			Title:      e.Title,
			Resolution: res,
		})
		if err != nil {
			log.Printf("Skipping %s in playlist %s: %v", e.URL, snap.ID, err)
			errs = append(errs, err)
			continue
		}
		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, fmt.Errorf("download %s: %w", snap.ID, model.ErrNoResolutionsAvailable)
	}
	log.Printf("Queued %d downloads for playlist %s (%d skipped)", len(tasks), snap.ID, len(errs))
	return tasks, errors.Join(errs...)
}

func (s *Service) addTask(task *model.DownloadTask) (*model.DownloadTask, error) {
	s.tasksMutex.Lock()

	// Check for duplicate URLs
	for _, existing := range s.tasks {
		if existing.URL == task.URL && !existing.Status.IsFinished() {
			s.tasksMutex.Unlock()
			return nil, fmt.Errorf("task already exists for URL: %s", task.URL)
		}
	}

	task.ID = generateTaskID()
	task.Status = model.TaskStatusPending
	task.ETASec = -1
	task.StartedAt = time.Now()

	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	// Try to start task if we have capacity
	if s.activeCount < s.maxParallel {
		s.launchLocked(task)
	}
	snapshot := *task
	s.tasksMutex.Unlock()

	return &snapshot, nil
}

// GetTask returns a copy of a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// GetAllTasks returns copies of all tasks in the order they were added
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.order))
	for _, id := range s.order {
		snapshot := *s.tasks[id]
		tasks = append(tasks, &snapshot)
	}
	return tasks
}

// GetSessionTasks returns copies of the tasks queued for one playlist session
func (s *Service) GetSessionTasks(sessionID string) []*model.DownloadTask {
	all := s.GetAllTasks()
	return slices.DeleteFunc(all, func(t *model.DownloadTask) bool {
		return t.SessionID != sessionID
	})
}

// StopTask stops a pending or running task
func (s *Service) StopTask(id string) error {
	s.tasksMutex.Lock()

	task, exists := s.tasks[id]
	if !exists {
		s.tasksMutex.Unlock()
		return fmt.Errorf("task not found: %s", id)
	}

	switch {
	case task.Status == model.TaskStatusPending:
		task.Status = model.TaskStatusStopped
		task.FinishedAt = time.Now()
	case task.Status.IsActive():
		task.Status = model.TaskStatusStopping
		if cancel, ok := s.cancels[id]; ok {
			cancel()
		}
	default:
		s.tasksMutex.Unlock()
		return fmt.Errorf("task is not active: %s", task.Status)
	}

	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
	return nil
}

// Wait blocks until no download is running or pending
func (s *Service) Wait() {
	s.running.Wait()
}

// launchLocked reserves a slot and starts task in the background
func (s *Service) launchLocked(task *model.DownloadTask) {
	s.activeCount++
	task.Status = model.TaskStatusStarting
	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[task.ID] = cancel

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.startTask(ctx, task)
	}()
}

// startTask downloads a task that already holds a slot
func (s *Service) startTask(ctx context.Context, task *model.DownloadTask) {
	defer func() {
		s.tasksMutex.Lock()
		s.activeCount--
		if cancel, ok := s.cancels[task.ID]; ok {
			cancel()
			delete(s.cancels, task.ID)
		}
		s.tasksMutex.Unlock()

		// Try to start next pending task
		s.startNextPendingTask()
	}()

	s.tasksMutex.Lock()
	if task.Status == model.TaskStatusStarting {
		task.Status = model.TaskStatusDownloading
	}
	dir := s.downloadDir
	runner := s.runner
	snapshot := *task
	s.tasksMutex.Unlock()
	s.notifyUpdate(&snapshot)

	outputPath, err := s.downloadWithRetry(ctx, runner, &snapshot, dir)

	// Update final status
	s.tasksMutex.Lock()
	switch {
	case err != nil && ctx.Err() == context.Canceled:
		task.Status = model.TaskStatusStopped
	case err != nil:
		task.Status = model.TaskStatusError
		task.LastError = err.Error()
	default:
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
		task.ETASec = -1
		if outputPath != "" {
			task.OutputPath = outputPath
		}
	}
	task.FinishedAt = time.Now()
	snapshot = *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
}

// downloadWithRetry attempts download with retry logic
func (s *Service) downloadWithRetry(ctx context.Context, runner Runner, task *model.DownloadTask, dir string) (string, error) {
	s.tasksMutex.RLock()
	maxRetries, delay := s.maxRetries, s.retryDelay
	s.tasksMutex.RUnlock()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Backoff delay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}

			log.Printf("Retrying download for task %s, attempt %d", task.ID, attempt+1)
		}

		outputPath, err := runner.Run(ctx, task, dir, func(update ProgressUpdate) {
			s.updateTaskProgress(task.ID, update)
		})
		if err == nil {
			return outputPath, nil
		}

		lastErr = err
		log.Printf("Download attempt %d failed for task %s: %v", attempt+1, task.ID, err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// updateTaskProgress applies a progress report to the stored task
func (s *Service) updateTaskProgress(id string, update ProgressUpdate) {
	s.tasksMutex.Lock()
	task, ok := s.tasks[id]
	if !ok {
		s.tasksMutex.Unlock()
		return
	}

	if update.TotalBytes > 0 {
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		task.Percent = int(percent)
		task.Progress = percent / 100.0
	}

	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			task.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}

	if update.ETA > 0 {
		task.ETASec = int(update.ETA.Seconds())
	}

	if update.Title != "" && task.Title == "" {
		task.Title = update.Title
	}
	snapshot := *task
	s.tasksMutex.Unlock()

	s.notifyUpdate(&snapshot)
}

// startNextPendingTask starts pending tasks in FIFO order while there is capacity
func (s *Service) startNextPendingTask() {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	for _, id := range s.order {
		if s.activeCount >= s.maxParallel {
			return
		}
		if task := s.tasks[id]; task.Status == model.TaskStatusPending {
			s.launchLocked(task)
		}
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	s.tasksMutex.RLock()
	callback := s.onUpdate
	s.tasksMutex.RUnlock()
	if callback != nil {
		callback(task)
	}
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return "task-" + uuid.NewString()
}

// FormatSelector returns the yt-dlp format expression for a resolution
func FormatSelector(r model.Resolution) string {
	switch {
	case r.IsAudioOnly():
		return "bestaudio/best"
	case r.IsNumeric():
		h := int(r)
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	default:
		return "bestvideo+bestaudio/best"
	}
}

// ytdlpRunner downloads through the yt-dlp binary
type ytdlpRunner struct{}

func (ytdlpRunner) Run(ctx context.Context, task *model.DownloadTask, dir string, onProgress func(ProgressUpdate)) (string, error) {
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		NoPlaylist().
		Format(FormatSelector(task.Resolution)).
		Output(filepath.Join(dir, DefaultFilenameTemplate))

	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		p := ProgressUpdate{
			DownloadedBytes: int64(update.DownloadedBytes),
			TotalBytes:      int64(update.TotalBytes),
			Started:         update.Started,
			ETA:             update.ETA(),
		}
		if update.Info != nil && update.Info.Title != nil {
			p.Title = *update.Info.Title
		}
		onProgress(p)
	})

	result, err := dl.Run(ctx, task.URL)
	if err != nil {
		return "", err
	}

	info, err := result.GetExtractedInfo()
	if err == nil && len(info) > 0 && info[0].Filename != nil {
		return *info[0].Filename, nil
	}
	return "", nil
}
