package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/v9cf/contentfactory/internal/service"
)

// Worker consumes dispatch tasks and hands them to the publish service.
type Worker struct {
	publish service.PublishService
}

func NewWorker(publish service.PublishService) *Worker {
	return &Worker{publish: publish}
}

func (w *Worker) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := w.publish.Dispatch(ctx, payload.PostID); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
