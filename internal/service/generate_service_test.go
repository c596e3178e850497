package service

import (
	"context"
	"testing"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/transfer"
)

func sceneFixture(t *testing.T) (*generateService, *fakeContentRepo, int64) {
	t.Helper()
	contents := newFakeContentRepo()

	id, err := contents.Create(context.Background(), &models.Content{
		UserID: 1,
		Type:   models.ContentTypeVideo,
		Status: models.ContentStatusDraft,
		AIGeneration: models.AIGeneration{
			VideoScenes: []models.VideoScene{
				{SceneNumber: 1, Prompt: "sunrise", TaskID: "task-1", Status: "processing"},
				{SceneNumber: 2, Prompt: "sunset", TaskID: "task-2", Status: "processing"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &generateService{c: contents}, contents, id
}

func TestRecordTaskStatusUpdatesScene(t *testing.T) {
	svc, contents, id := sceneFixture(t)

	svc.recordTaskStatus(context.Background(), 1, &transfer.VideoTaskStatus{
		TaskID:   "task-1",
		Status:   "succeed",
		VideoURL: "https://cdn.example.com/scene-1.mp4",
	})

	content, err := contents.GetByID(context.Background(), id, 1)
	if err != nil {
		t.Fatal(err)
	}
	scene := content.AIGeneration.VideoScenes[0]
	if scene.Status != "succeed" || scene.VideoURL != "https://cdn.example.com/scene-1.mp4" {
		t.Errorf("scene not updated: %+v", scene)
	}
	if len(content.Media) != 1 || content.Media[0].URL != "https://cdn.example.com/scene-1.mp4" {
		t.Errorf("expected one appended video media item, got %+v", content.Media)
	}
	// The second scene is still running, so the record stays draft.
	if content.Status != models.ContentStatusDraft {
		t.Errorf("expected draft while a scene is pending, got %s", content.Status)
	}
}

func TestRecordTaskStatusPromotesWhenAllScenesDone(t *testing.T) {
	svc, contents, id := sceneFixture(t)

	svc.recordTaskStatus(context.Background(), 1, &transfer.VideoTaskStatus{
		TaskID: "task-1", Status: "succeed", VideoURL: "https://cdn.example.com/scene-1.mp4",
	})
	svc.recordTaskStatus(context.Background(), 1, &transfer.VideoTaskStatus{
		TaskID: "task-2", Status: "succeed", VideoURL: "https://cdn.example.com/scene-2.mp4",
	})

	content, err := contents.GetByID(context.Background(), id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if content.Status != models.ContentStatusReady {
		t.Errorf("expected ready once every scene completed, got %s", content.Status)
	}
	if len(content.Media) != 2 {
		t.Errorf("expected both scene videos appended, got %d", len(content.Media))
	}
}

func TestRecordTaskStatusIgnoresForeignTasks(t *testing.T) {
	svc, contents, id := sceneFixture(t)

	// Unknown task id and another user's poll both leave the record alone.
	svc.recordTaskStatus(context.Background(), 1, &transfer.VideoTaskStatus{
		TaskID: "task-99", Status: "succeed", VideoURL: "https://cdn.example.com/x.mp4",
	})
	svc.recordTaskStatus(context.Background(), 2, &transfer.VideoTaskStatus{
		TaskID: "task-1", Status: "succeed", VideoURL: "https://cdn.example.com/x.mp4",
	})

	content, err := contents.GetByID(context.Background(), id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if content.AIGeneration.VideoScenes[0].Status != "processing" || len(content.Media) != 0 {
		t.Errorf("record changed by a foreign poll: %+v", content)
	}
}
