// Package queue moves publish dispatches through Redis via asynq. The
// queue delivers at least once; the post status compare-and-swap in the
// publish service is what makes duplicate deliveries harmless.
package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTypeDispatchPost = "post:dispatch"

type DispatchPostPayload struct {
	PostID int64 `json:"post_id"`
}

// Scheduler enqueues delayed dispatch tasks. It satisfies the publish
// service's DispatchScheduler.
type Scheduler struct {
	client *asynq.Client
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) ScheduleDispatch(postID int64, delay time.Duration) error {
	payload, err := json.Marshal(DispatchPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatchPost, payload)

	if _, err := s.client.Enqueue(task, asynq.ProcessIn(delay)); err != nil {
		return err
	}

	log.Printf("Dispatch scheduled: post %d in %s", postID, delay)
	return nil
}
