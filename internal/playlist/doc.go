// Package playlist tracks the resolution progress of every video in a
// playlist and decides when the playlist is ready to download.
//
// A Session owns the entries of one playlist. Resolver workers report
// per-video transitions through Session.Apply from any goroutine; the session
// keeps the per-state counts, derives the playlist status and, once nothing is
// pending, fires the automatic download at most once. Observers implement
// Listener and are notified outside the session lock in the order updates
// happened.
package playlist
