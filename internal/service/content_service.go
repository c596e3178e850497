package service

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/transfer"
)

var knownContentTypes = map[string]bool{
	models.ContentTypeText:     true,
	models.ContentTypeImage:    true,
	models.ContentTypeVideo:    true,
	models.ContentTypeReel:     true,
	models.ContentTypeCarousel: true,
}

type ContentService interface {
	Create(ctx context.Context, userID int64, creation *transfer.ContentCreation, files []*multipart.FileHeader) (*models.Content, error)
	Get(ctx context.Context, userID, contentID int64) (*models.Content, error)
	List(ctx context.Context, userID int64, limit int) ([]*models.Content, error)
	Remove(ctx context.Context, userID, contentID int64) error
}

type contentService struct {
	c     repository.ContentRepository
	media MediaService
}

func NewContentService(c repository.ContentRepository, media MediaService) ContentService {
	return &contentService{
		c:     c,
		media: media,
	}
}

func (s *contentService) Create(ctx context.Context, userID int64, creation *transfer.ContentCreation, files []*multipart.FileHeader) (*models.Content, error) {
	if !knownContentTypes[creation.Type] {
		err := errors.New("unknown content type")
		slog.Info(err.Error())
		return nil, ErrValidation
	}
	if creation.Text == "" && len(creation.MediaURLs) == 0 && len(files) == 0 {
		return nil, ErrValidation
	}

	media := make(models.MediaList, 0, len(creation.MediaURLs)+len(files))
	for _, url := range creation.MediaURLs {
		media = append(media, models.MediaItem{Type: "image", URL: url})
	}
	for _, file := range files {
		item, err := s.media.UploadFile(ctx, file)
		if err != nil {
			return nil, err
		}
		media = append(media, *item)
	}

	content := &models.Content{
		UserID: userID,
		Type:   creation.Type,
		Status: models.ContentStatusReady,
		Title:  creation.Title,
		Text:   creation.Text,
		Media:  media,
		Tags:   creation.Tags,
		Folder: creation.Folder,
	}

	id, err := s.c.Create(ctx, content)
	if err != nil {
		return nil, err
	}
	content.ID = id
	return content, nil
}

func (s *contentService) Get(ctx context.Context, userID, contentID int64) (*models.Content, error) {
	content, err := s.c.GetByID(ctx, contentID, userID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}
	return content, nil
}

func (s *contentService) List(ctx context.Context, userID int64, limit int) ([]*models.Content, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.c.ListByUserID(ctx, userID, limit)
}

func (s *contentService) Remove(ctx context.Context, userID, contentID int64) error {
	removed, err := s.c.Remove(ctx, contentID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrContentNotFound
	}
	return nil
}
