package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cfg "github.com/v9cf/contentfactory/configs"
	"github.com/v9cf/contentfactory/internal/models"
)

// MediaService stores media assets in Cloudflare R2 and returns their
// public URLs. Uploads are content-sniffed; the client's claimed type is
// never trusted.
type MediaService interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader) (*models.MediaItem, error)
	UploadBytes(ctx context.Context, data []byte, generated *models.Provenance) (*models.MediaItem, error)
}

type mediaService struct {
	config *cfg.Config
	client *s3.Client
}

func NewMediaService(config *cfg.Config) (MediaService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.R2.AccessKey, config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", config.R2.AccountID))
	})

	return &mediaService{config: config, client: client}, nil
}

var allowedExtensions = map[string]string{
	"jpg":  "image",
	"jpeg": "image",
	"png":  "image",
	"gif":  "image",
	"webp": "image",
	"mp4":  "video",
	"mov":  "video",
	"mp3":  "audio",
}

func (s *mediaService) UploadFile(ctx context.Context, file *multipart.FileHeader) (*models.MediaItem, error) {
	content, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	return s.upload(ctx, data, nil)
}

func (s *mediaService) UploadBytes(ctx context.Context, data []byte, generated *models.Provenance) (*models.MediaItem, error) {
	return s.upload(ctx, data, generated)
}

func (s *mediaService) upload(ctx context.Context, data []byte, generated *models.Provenance) (*models.MediaItem, error) {
	fileType, err := filetype.Match(data)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type: %w", err)
	}
	mediaType, ok := allowedExtensions[fileType.Extension]
	if !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(fileType.MIME.Value),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &models.MediaItem{
		Type:        mediaType,
		URL:         fmt.Sprintf("%s/%s", s.config.R2.PublicURL, key),
		MimeType:    fileType.MIME.Value,
		Size:        int64(len(data)),
		GeneratedBy: generated,
	}, nil
}
