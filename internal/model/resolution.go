package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a downloadable rendition: a vertical pixel height such as
// 1080, or the AudioOnly sentinel. The zero value means "none selected".
type Resolution int

// AudioOnly is the sentinel for an audio-only download. It sorts after every
// numeric resolution.
const AudioOnly Resolution = -1

const audioOnlyLabel = "Audio Only"

// IsAudioOnly reports whether r is the audio-only sentinel
func (r Resolution) IsAudioOnly() bool {
	return r == AudioOnly
}

// IsNumeric reports whether r is a concrete pixel height
func (r Resolution) IsNumeric() bool {
	return r > 0
}

// IsZero reports whether r is the unset value
func (r Resolution) IsZero() bool {
	return r == 0
}

// String returns "1080p" for numeric values and "Audio Only" for the sentinel
func (r Resolution) String() string {
	switch {
	case r.IsAudioOnly():
		return audioOnlyLabel
	case r.IsNumeric():
		return fmt.Sprintf("%dp", int(r))
	}
	return ""
}

// ParseResolution accepts "1080p", "1080", "audio_only", "audio" and
// "Audio Only".
func ParseResolution(s string) (Resolution, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "audio_only", "audio", "audio only":
		return AudioOnly, nil
	}

	n, err := strconv.Atoi(strings.TrimSuffix(v, "p"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid resolution %q", s)
	}
	return Resolution(n), nil
}

// TierKind enumerates the shapes a QualityTier can take
type TierKind int

const (
	TierHighest TierKind = iota
	TierLowest
	TierConcrete
	TierAudioOnly
)

// QualityTier is a user preference that is resolved against the resolutions
// a playlist actually offers. The zero value is HighestQuality.
type QualityTier struct {
	Kind   TierKind
	Height int // only for TierConcrete
}

var (
	HighestQuality = QualityTier{Kind: TierHighest}
	LowestQuality  = QualityTier{Kind: TierLowest}
	AudioOnlyTier  = QualityTier{Kind: TierAudioOnly}
)

// Concrete returns a tier asking for the given pixel height
func Concrete(height int) QualityTier {
	return QualityTier{Kind: TierConcrete, Height: height}
}

// String returns the persisted form of the tier
func (t QualityTier) String() string {
	switch t.Kind {
	case TierLowest:
		return "lowest_quality"
	case TierConcrete:
		return fmt.Sprintf("%dp", t.Height)
	case TierAudioOnly:
		return "audio_only"
	default:
		return "highest_quality"
	}
}

// ParseQualityTier parses the persisted form produced by String. Numeric
// values accept an optional "p" suffix.
func ParseQualityTier(s string) (QualityTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest_quality", "highest", "best":
		return HighestQuality, nil
	case "lowest_quality", "lowest":
		return LowestQuality, nil
	}

	r, err := ParseResolution(s)
	if err != nil {
		return QualityTier{}, fmt.Errorf("invalid quality tier %q", s)
	}
	if r.IsAudioOnly() {
		return AudioOnlyTier, nil
	}
	return Concrete(int(r)), nil
}
