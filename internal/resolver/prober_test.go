package resolver

import (
	"slices"
	"testing"
	"time"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

func TestNewProber(t *testing.T) {
	p := NewProber()
	if p.timeout != DefaultProbeTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultProbeTimeout, p.timeout)
	}
}

func TestProber_SetTimeout(t *testing.T) {
	p := NewProber()
	p.SetTimeout(90 * time.Second)
	if p.timeout != 90*time.Second {
		t.Errorf("expected timeout 1m30s, got %v", p.timeout)
	}
}

func TestResolutionsFromHeights(t *testing.T) {
	tests := []struct {
		name     string
		heights  []int
		expected []model.Resolution
	}{
		{
			name:     "typical formats",
			heights:  []int{144, 360, 720, 720, 1080, 480, 360},
			expected: []model.Resolution{1080, 720, 480, 360, 144, model.AudioOnly},
		},
		{
			name:     "audio only video",
			heights:  nil,
			expected: []model.Resolution{model.AudioOnly},
		},
		{
			name:     "zero heights ignored",
			heights:  []int{0, 240},
			expected: []model.Resolution{240, model.AudioOnly},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolutionsFromHeights(tt.heights)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
