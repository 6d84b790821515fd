package playlist

import (
	"log"
	"sync/atomic"

	"github.com/ytget/yt-playlist-loader/internal/model"
	"github.com/ytget/yt-playlist-loader/internal/selector"
)

// Trigger is a one-shot gate for the automatic download.
type Trigger struct {
	fired atomic.Bool
}

// Ready reports whether counts and policy allow firing, ignoring whether the
// trigger already fired.
func Ready(policy Policy, counts model.StateCounts) bool {
	return policy.Enabled && counts.Waiting == 0 && counts.Loading == 0 && counts.Loaded > 0
}

// Evaluate runs action and returns true the first time Ready holds. Every
// later call returns false.
func (t *Trigger) Evaluate(policy Policy, counts model.StateCounts, action func(Policy)) bool {
	if !Ready(policy, counts) {
		return false
	}
	if !t.fired.CompareAndSwap(false, true) {
		return false
	}
	action(policy)
	return true
}

// Fired reports whether the trigger has fired
func (t *Trigger) Fired() bool {
	return t.fired.Load()
}

// assignResolutions sets target on every Loaded entry, letting each entry fall
// back to its own nearest offer. It returns how many entries were updated.
func assignResolutions(entries []*model.VideoEntry, target model.Resolution) int {
	assigned := 0
	for _, e := range entries {
		if e.State != model.LoadStateLoaded {
			continue
		}
		r := target
		if !e.Offers(r) {
			r = selector.Nearest(target, e.AvailableResolutions)
		}
		if err := e.SelectResolution(r); err != nil {
			log.Printf("Cannot select %s for %s: %v", r, e.ID, err)
			continue
		}
		assigned++
	}
	return assigned
}
