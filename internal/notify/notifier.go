package notify

import (
	"context"
	"os/exec"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/pkg/mq"
)

// DueEventPayload is published on the task.due routing key.
type DueEventPayload struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Priority string `json:"priority"`
}

// Notifier fans a due task out to the notification channels: an MQ event for
// anything listening remotely and a desktop popup on the host. Every channel
// is best-effort; a failure is logged and the alert flow is unaffected.
type Notifier struct {
	publisher   *mq.Publisher // nil when MQ is disabled
	desktopPath string        // empty when the host has no notifier tool
	logger      *zap.Logger
}

func NewNotifier(publisher *mq.Publisher, logger *zap.Logger) *Notifier {
	path, _ := exec.LookPath("notify-send")
	return &Notifier{
		publisher:   publisher,
		desktopPath: path,
		logger:      logger,
	}
}

func (n *Notifier) NotifyDue(ctx context.Context, task model.Task) {
	if n.publisher != nil {
		payload := DueEventPayload{
			TaskID:   task.ID,
			Title:    task.Title,
			Date:     task.Date,
			Time:     task.Time,
			Priority: task.Priority,
		}
		if err := n.publisher.Publish("task.due", payload); err != nil {
			n.logger.Warn("Failed to publish task.due event",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
		} else {
			n.logger.Info("Published task.due event",
				zap.String("task_id", task.ID),
			)
		}
	}

	if n.desktopPath != "" {
		cmd := exec.Command(n.desktopPath, "Task Reminder", task.Title)
		if err := cmd.Start(); err != nil {
			n.logger.Warn("Failed to show desktop notification", zap.Error(err))
			return
		}
		go func() { _ = cmd.Wait() }()
	}
}
