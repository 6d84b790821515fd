// Package selector computes which resolutions a playlist offers and maps a
// quality preference onto them.
package selector

import (
	"cmp"
	"slices"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// UnionAvailable returns every numeric resolution offered by a Loaded entry,
// de-duplicated and sorted descending, followed by model.AudioOnly. Entries in
// any other state contribute nothing; with no Loaded entry the result is nil.
func UnionAvailable(entries []*model.VideoEntry) []model.Resolution {
	seen := make(map[model.Resolution]struct{})
	loaded := false
	for _, e := range entries {
		if e == nil || e.State != model.LoadStateLoaded {
			continue
		}
		loaded = true
		for _, r := range e.AvailableResolutions {
			if r.IsNumeric() {
				seen[r] = struct{}{}
			}
		}
	}
	if !loaded {
		return nil
	}

	out := make([]model.Resolution, 0, len(seen)+1)
	for r := range seen {
		out = append(out, r)
	}
	sortDescending(out)
	return append(out, model.AudioOnly)
}

// Resolve maps tier onto available. The result is never AudioOnly when a
// numeric resolution exists unless the tier asks for audio.
func Resolve(tier model.QualityTier, available []model.Resolution) (model.Resolution, error) {
	if len(available) == 0 {
		return 0, model.ErrNoResolutionsAvailable
	}

	nums := numeric(available)
	if tier.Kind == model.TierAudioOnly || len(nums) == 0 {
		return model.AudioOnly, nil
	}

	switch tier.Kind {
	case model.TierLowest:
		return nums[len(nums)-1], nil
	case model.TierConcrete:
		q := model.Resolution(tier.Height)
		if q > nums[0] {
			return nums[len(nums)-1], nil
		}
		return Nearest(q, nums), nil
	default:
		return nums[0], nil
	}
}

// Nearest picks, from one video's offers, the first value not above target
// scanning descending, or the smallest numeric offer when every value is
// above it. AudioOnly maps to AudioOnly; an offer list without numeric
// values yields AudioOnly.
func Nearest(target model.Resolution, offers []model.Resolution) model.Resolution {
	nums := numeric(offers)
	if target.IsAudioOnly() || len(nums) == 0 {
		return model.AudioOnly
	}
	for _, r := range nums {
		if r <= target {
			return r
		}
	}
	return nums[len(nums)-1]
}

// numeric returns the numeric values of list sorted descending
func numeric(list []model.Resolution) []model.Resolution {
	out := make([]model.Resolution, 0, len(list))
	for _, r := range list {
		if r.IsNumeric() {
			out = append(out, r)
		}
	}
	sortDescending(out)
	return out
}

func sortDescending(list []model.Resolution) {
	slices.SortFunc(list, func(a, b model.Resolution) int {
		return cmp.Compare(b, a)
	})
}
