// Package resolver talks to YouTube through yt-dlp: it lists the members of a
// playlist and probes each video for the resolutions it can be downloaded in.
// Service combines both behind the playlist.Resolver interface with a bounded
// worker pool and request pacing.
package resolver
