package download

import (
	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/playlist"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	AddTask(url string, resolution model.Resolution) (*model.DownloadTask, error)
	DownloadSession(snap playlist.Snapshot) ([]*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	GetSessionTasks(sessionID string) []*model.DownloadTask
	StopTask(id string) error

	// SetMaxParallelDownloads sets the maximum number of parallel downloads
	SetMaxParallelDownloads(max int)

	// SetDownloadDirectory sets the download directory
	SetDownloadDirectory(dir string)
}

var _ Downloader = (*Service)(nil)
