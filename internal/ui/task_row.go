package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/yt-playlist-loader/internal/model"
)

// TaskRow renders one download task: title, target resolution, progress and
// a stop button while the task is active.
type TaskRow struct {
	widget.BaseWidget

	task *model.DownloadTask

	titleLabel      *widget.Label
	resolutionLabel *widget.Label
	statusLabel     *widget.Label
	progressBar     *widget.ProgressBar
	stopBtn         *widget.Button

	onStop func(taskID string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task *model.DownloadTask) *TaskRow {
	if task == nil {
		task = &model.DownloadTask{Status: model.TaskStatusPending}
	}

	tr := &TaskRow{task: task}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetOnStop sets the callback invoked by the stop button
func (tr *TaskRow) SetOnStop(onStop func(taskID string)) {
	tr.onStop = onStop
}

// UpdateTask updates the row with new task data
func (tr *TaskRow) UpdateTask(task *model.DownloadTask) {
	if task == nil {
		log.Printf("Warning: UpdateTask called with nil task for existing task %s", tr.task.ID)
		return
	}
	tr.task = task
	tr.updateFromTask()
}

func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis

	tr.resolutionLabel = widget.NewLabel("")
	tr.resolutionLabel.TextStyle = fyne.TextStyle{Monospace: true}

	tr.statusLabel = widget.NewLabel("")
	tr.statusLabel.Alignment = fyne.TextAlignTrailing
	tr.statusLabel.Truncation = fyne.TextTruncateEllipsis

	tr.progressBar = widget.NewProgressBar()

	tr.stopBtn = widget.NewButton(IconStop, func() {
		if tr.onStop == nil {
			log.Printf("onStop callback is nil for task %s", tr.task.ID)
			return
		}
		tr.onStop(tr.task.ID)
	})
	tr.stopBtn.Importance = widget.LowImportance
}

func (tr *TaskRow) updateFromTask() {
	tr.titleLabel.SetText(cleanText(tr.task.GetDisplayTitle()))
	tr.resolutionLabel.SetText(tr.task.Resolution.String())
	tr.statusLabel.SetText(taskStatusText(tr.task))
	tr.progressBar.SetValue(tr.task.Progress)

	if tr.task.Status == model.TaskStatusError {
		tr.statusLabel.Importance = widget.DangerImportance
	} else if tr.task.Status == model.TaskStatusCompleted {
		tr.statusLabel.Importance = widget.SuccessImportance
	} else {
		tr.statusLabel.Importance = widget.MediumImportance
	}
	tr.statusLabel.Refresh()

	if tr.task.Status.IsFinished() {
		tr.stopBtn.Disable()
	} else {
		tr.stopBtn.Enable()
	}
}

// CreateRenderer lays the row out as title on top and progress underneath
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	top := container.NewBorder(nil, nil, tr.resolutionLabel, tr.statusLabel, tr.titleLabel)
	bottom := container.NewBorder(nil, nil, nil, tr.stopBtn, tr.progressBar)
	return widget.NewSimpleRenderer(container.NewVBox(top, bottom))
}
