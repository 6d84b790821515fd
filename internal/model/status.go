package model

// LoadState is the resolution lifecycle state of a single playlist entry.
// An entry holds exactly one state at a time.
type LoadState string

const (
	// LoadStateWaiting means the entry is queued for resolution
	LoadStateWaiting LoadState = "waiting"

	// LoadStateLoading means format information is being fetched
	LoadStateLoading LoadState = "loading"

	// LoadStateLoaded means the available resolutions are known
	LoadStateLoaded LoadState = "loaded"

	// LoadStateFailed means resolution failed and may be retried
	LoadStateFailed LoadState = "failed"
)

// String returns the string representation of LoadState
func (s LoadState) String() string {
	return string(s)
}

// IsValid reports whether s is one of the four known states
func (s LoadState) IsValid() bool {
	switch s {
	case LoadStateWaiting, LoadStateLoading, LoadStateLoaded, LoadStateFailed:
		return true
	}
	return false
}

// SessionStatus summarizes the load states of every entry in a playlist.
type SessionStatus string

const (
	SessionStatusLoading  SessionStatus = "loading"
	SessionStatusWaiting  SessionStatus = "waiting"
	SessionStatusFailed   SessionStatus = "failed"
	SessionStatusComplete SessionStatus = "complete"
)

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// Label returns a capitalized label suitable for display
func (s SessionStatus) Label() string {
	switch s {
	case SessionStatusLoading:
		return "Loading"
	case SessionStatusWaiting:
		return "Waiting"
	case SessionStatusFailed:
		return "Failed"
	case SessionStatusComplete:
		return "Complete"
	}
	return string(s)
}

// TaskStatus represents the status of a download task
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusStarting means the task is in the process of starting
	TaskStatusStarting TaskStatus = "Starting"

	// TaskStatusDownloading means the download is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusStopping means the task is in the process of stopping
	TaskStatusStopping TaskStatus = "Stopping"

	// TaskStatusStopped means the task was stopped by user
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the task finished successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the task failed with an error
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is in an active state
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusStarting || ts == TaskStatusDownloading || ts == TaskStatusStopping
}

// IsFinished returns true if the task is in a finished state (completed, stopped, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusStopped || ts == TaskStatusError
}
