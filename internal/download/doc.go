package download

// Package download implements the download pipeline built on top of yt-dlp
// (via github.com/lrstanley/go-ytdlp). It turns a ready playlist snapshot into
// one task per video at the selected resolution, manages the task lifecycle
// and concurrency limit, and propagates progress to the UI.
