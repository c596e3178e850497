package service

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/transfer"
)

type stubMediaService struct {
	uploads int
}

func (s *stubMediaService) UploadFile(ctx context.Context, file *multipart.FileHeader) (*models.MediaItem, error) {
	s.uploads++
	return &models.MediaItem{Type: "image", URL: "https://cdn.example.com/uploaded"}, nil
}

func (s *stubMediaService) UploadBytes(ctx context.Context, data []byte, generated *models.Provenance) (*models.MediaItem, error) {
	s.uploads++
	return &models.MediaItem{Type: "audio", URL: "https://cdn.example.com/generated", GeneratedBy: generated}, nil
}

func newContentFixture() (ContentService, *fakeContentRepo) {
	repo := newFakeContentRepo()
	return NewContentService(repo, &stubMediaService{}), repo
}

func TestCreateContentFromText(t *testing.T) {
	svc, repo := newContentFixture()

	content, err := svc.Create(context.Background(), 1, &transfer.ContentCreation{
		Type: models.ContentTypeText,
		Text: "draft copy",
		Tags: []string{"launch"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if content.Status != models.ContentStatusReady {
		t.Errorf("expected ready status, got %s", content.Status)
	}

	stored, _ := repo.GetByID(context.Background(), content.ID, 1)
	if stored == nil || stored.Text != "draft copy" {
		t.Fatalf("content not persisted: %+v", stored)
	}
}

func TestCreateContentValidation(t *testing.T) {
	svc, _ := newContentFixture()

	_, err := svc.Create(context.Background(), 1, &transfer.ContentCreation{Type: "podcast", Text: "x"}, nil)
	if err != ErrValidation {
		t.Fatalf("unknown type: expected validation error, got %v", err)
	}

	_, err = svc.Create(context.Background(), 1, &transfer.ContentCreation{Type: models.ContentTypeText}, nil)
	if err != ErrValidation {
		t.Fatalf("empty content: expected validation error, got %v", err)
	}
}

func TestGetContentScopedToUser(t *testing.T) {
	svc, _ := newContentFixture()

	content, err := svc.Create(context.Background(), 1, &transfer.ContentCreation{
		Type: models.ContentTypeText,
		Text: "mine",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(context.Background(), 2, content.ID); err != ErrContentNotFound {
		t.Fatalf("expected ErrContentNotFound for other user, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, content.ID); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveContent(t *testing.T) {
	svc, _ := newContentFixture()

	content, err := svc.Create(context.Background(), 1, &transfer.ContentCreation{
		Type: models.ContentTypeText,
		Text: "to delete",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(context.Background(), 1, content.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(context.Background(), 1, content.ID); err != ErrContentNotFound {
		t.Fatalf("expected ErrContentNotFound on second remove, got %v", err)
	}
}
