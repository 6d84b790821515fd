package ui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// validateURL validates the entered URL
func validateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil // Empty is allowed
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return err
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	return nil
}

// cleanText removes control characters that break single-line labels
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// statusText renders the headline of a playlist row, e.g. "Loading (3/10)".
func statusText(status model.SessionStatus, counts model.StateCounts) string {
	total := counts.Sum()
	if total == 0 {
		return status.Label()
	}
	return fmt.Sprintf("%s (%d/%d)", status.Label(), counts.Loaded, total)
}

// resolutionOptions converts a union of resolutions into select labels
func resolutionOptions(resolutions []model.Resolution) []string {
	options := make([]string, 0, len(resolutions))
	for _, r := range resolutions {
		options = append(options, r.String())
	}
	return options
}

// tierOptions converts quality tiers into their persisted labels
func tierOptions(tiers []model.QualityTier) []string {
	options := make([]string, 0, len(tiers))
	for _, t := range tiers {
		options = append(options, t.String())
	}
	return options
}

// taskStatusText renders status, progress and speed of a download task
func taskStatusText(task *model.DownloadTask) string {
	switch task.Status {
	case model.TaskStatusDownloading:
		parts := []string{fmt.Sprintf(ProgressLabelFormat, task.Percent)}
		if task.Speed != "" {
			parts = append(parts, task.Speed)
		}
		if eta := task.GetETAString(); eta != DashPlaceholder {
			parts = append(parts, eta)
		}
		return strings.Join(parts, MiddleDotSeparator)
	case model.TaskStatusError:
		if task.LastError != "" {
			return IconError + " " + cleanText(task.LastError)
		}
	}
	return task.Status.String()
}

// taskSummary renders the per-session download tally shown under a playlist
func taskSummary(tasks []*model.DownloadTask) string {
	if len(tasks) == 0 {
		return ""
	}
	var done, failed, active int
	for _, t := range tasks {
		switch {
		case t.Status == model.TaskStatusCompleted:
			done++
		case t.Status == model.TaskStatusError:
			failed++
		case t.Status.IsActive():
			active++
		}
	}
	return fmt.Sprintf("Downloads: %d/%d done%s%d active%s%d failed",
		done, len(tasks), MiddleDotSeparator, active, MiddleDotSeparator, failed)
}

// startedMessage reports queued downloads and how many entries were skipped
func startedMessage(prefix string, queued int, skipped error) string {
	msg := fmt.Sprintf("%s: %d videos", prefix, queued)
	if skipped == nil {
		return msg
	}
	n := 1
	if joined, ok := skipped.(interface{ Unwrap() []error }); ok {
		n = len(joined.Unwrap())
	}
	return fmt.Sprintf("%s, %d skipped", msg, n)
}
