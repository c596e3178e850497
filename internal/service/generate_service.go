package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sashabaranov/go-openai"
	cfg "github.com/v9cf/contentfactory/configs"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/transfer"
)

const klingBaseURL = "https://api.klingai.com"

// GenerateService produces content artifacts with external AI providers.
// Text, image and voice calls are synchronous; video generation submits
// one Kling task per scene and the content stays draft until every scene
// is polled complete.
type GenerateService interface {
	Generate(ctx context.Context, userID int64, req *transfer.GenerateRequest) (*transfer.GenerateResult, error)
	// TaskStatus polls one provider task and folds the answer back
	// into the scene that submitted it.
	TaskStatus(ctx context.Context, userID int64, taskID string) (*transfer.VideoTaskStatus, error)
	ContentStatus(ctx context.Context, userID, contentID int64) (*models.Content, error)
	// RefreshVideoScenes polls pending scene tasks for one content
	// record and promotes it to ready when all scenes have completed.
	RefreshVideoScenes(ctx context.Context, content *models.Content) error
}

type generateService struct {
	c      repository.ContentRepository
	media  MediaService
	openai *openai.Client
	config *cfg.Config
	http   *http.Client
}

func NewGenerateService(c repository.ContentRepository, media MediaService, config *cfg.Config) GenerateService {
	return &generateService{
		c:      c,
		media:  media,
		openai: openai.NewClient(config.OpenAIAPIKey),
		config: config,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *generateService) Generate(ctx context.Context, userID int64, req *transfer.GenerateRequest) (*transfer.GenerateResult, error) {
	if req.Type == "" || req.Prompt == "" {
		return nil, ErrValidation
	}

	content := &models.Content{
		UserID: userID,
		Type:   req.Type,
		Status: models.ContentStatusDraft,
		AIGeneration: models.AIGeneration{
			TextPrompt: req.Prompt,
		},
	}

	var err error
	switch req.Type {
	case models.ContentTypeText:
		err = s.generateText(ctx, content, req)
	case models.ContentTypeImage:
		err = s.generateImage(ctx, content, req)
	case models.ContentTypeVideo, models.ContentTypeReel:
		err = s.generateVideo(ctx, content, req)
	case "voice":
		content.Type = models.ContentTypeText
		err = s.generateVoice(ctx, content, req)
	default:
		return nil, ErrValidation
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	id, err := s.c.Create(ctx, content)
	if err != nil {
		return nil, err
	}
	content.ID = id

	result := &transfer.GenerateResult{
		ContentID: id,
		Type:      req.Type,
		Status:    content.Status,
		Text:      content.Text,
	}
	if urls := content.MediaURLs(); len(urls) > 0 {
		result.URL = urls[0]
	}
	for _, scene := range content.AIGeneration.VideoScenes {
		result.TaskIDs = append(result.TaskIDs, scene.TaskID)
	}
	return result, nil
}

func (s *generateService) generateText(ctx context.Context, content *models.Content, req *transfer.GenerateRequest) error {
	model := req.Options.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := s.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a social media content writer. Create engaging, concise content.",
			},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("empty completion response")
	}

	content.Text = resp.Choices[0].Message.Content
	content.Status = models.ContentStatusReady
	return nil
}

func (s *generateService) generateImage(ctx context.Context, content *models.Content, req *transfer.GenerateRequest) error {
	resp, err := s.openai.CreateImage(ctx, openai.ImageRequest{
		Model:   openai.CreateImageModelDallE3,
		Prompt:  req.Prompt,
		N:       1,
		Size:    openai.CreateImageSize1024x1024,
		Quality: openai.CreateImageQualityStandard,
	})
	if err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("empty image response")
	}

	content.Media = models.MediaList{{
		Type: "image",
		URL:  resp.Data[0].URL,
		GeneratedBy: &models.Provenance{
			Provider: "openai",
			Prompt:   req.Prompt,
			Model:    "dall-e-3",
		},
	}}
	content.AIGeneration.ImagePrompt = req.Prompt
	content.Status = models.ContentStatusReady
	return nil
}

func (s *generateService) generateVoice(ctx context.Context, content *models.Content, req *transfer.GenerateRequest) error {
	voice := openai.SpeechVoice(req.Options.Voice)
	if voice == "" {
		voice = openai.VoiceAlloy
	}

	resp, err := s.openai.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: req.Prompt,
		Voice: voice,
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return err
	}

	item, err := s.media.UploadBytes(ctx, audio, &models.Provenance{
		Provider: "openai",
		Prompt:   req.Prompt,
		Model:    "tts-1",
	})
	if err != nil {
		return err
	}

	content.Media = models.MediaList{*item}
	content.AIGeneration.VoiceoverText = req.Prompt
	content.AIGeneration.VoiceID = string(voice)
	content.Status = models.ContentStatusReady
	return nil
}

type klingSubmitResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"message"`
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

type klingStatusResponse struct {
	Code int `json:"code"`
	Data struct {
		TaskStatus string `json:"task_status"`
		TaskResult struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

func (s *generateService) generateVideo(ctx context.Context, content *models.Content, req *transfer.GenerateRequest) error {
	sceneCount := req.Options.SceneCount
	if sceneCount <= 0 {
		sceneCount = 1
	}
	duration := req.Options.Duration
	if duration <= 0 {
		duration = 5
	}
	aspectRatio := req.Options.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	token, err := s.klingToken()
	if err != nil {
		return err
	}

	var scenes []models.VideoScene
	for i := 0; i < sceneCount; i++ {
		payload, err := json.Marshal(map[string]string{
			"prompt":       req.Prompt,
			"duration":     fmt.Sprintf("%g", duration),
			"aspect_ratio": aspectRatio,
			"model_name":   "kling-v1",
		})
		if err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, klingBaseURL+"/v1/videos/text2video", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(httpReq)
		if err != nil {
			return err
		}
		var submitted klingSubmitResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&submitted)
		resp.Body.Close()
		if decodeErr != nil {
			return decodeErr
		}

		// Code 1303 is the provider's rate limit: keep what was
		// accepted so far and let the poller pick it up.
		if submitted.Code == 1303 {
			break
		}
		if submitted.Code != 0 || submitted.Data.TaskID == "" {
			return fmt.Errorf("video task submission failed: %s", submitted.Msg)
		}

		scenes = append(scenes, models.VideoScene{
			SceneNumber: i + 1,
			Prompt:      req.Prompt,
			Duration:    duration,
			TaskID:      submitted.Data.TaskID,
			Status:      "processing",
		})
	}

	content.AIGeneration.VideoScenes = scenes
	content.Status = models.ContentStatusDraft
	return nil
}

func (s *generateService) TaskStatus(ctx context.Context, userID int64, taskID string) (*transfer.VideoTaskStatus, error) {
	status, err := s.pollTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.recordTaskStatus(ctx, userID, status)
	return status, nil
}

func (s *generateService) pollTask(ctx context.Context, taskID string) (*transfer.VideoTaskStatus, error) {
	token, err := s.klingToken()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, klingBaseURL+"/v1/videos/text2video/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status klingStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}

	result := &transfer.VideoTaskStatus{
		TaskID: taskID,
		Status: status.Data.TaskStatus,
	}
	if len(status.Data.TaskResult.Videos) > 0 {
		result.VideoURL = status.Data.TaskResult.Videos[0].URL
	}
	return result, nil
}

// recordTaskStatus writes a polled task result into the content record
// that owns the scene, so a poll by task id and a poll by content id
// report the same state. Write failures only log; polling stays a read
// from the caller's point of view.
func (s *generateService) recordTaskStatus(ctx context.Context, userID int64, status *transfer.VideoTaskStatus) {
	content, err := s.c.FindBySceneTaskID(ctx, userID, status.TaskID)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if content == nil {
		return
	}

	changed := false
	pending := 0
	for i := range content.AIGeneration.VideoScenes {
		scene := &content.AIGeneration.VideoScenes[i]
		if scene.TaskID == status.TaskID {
			if status.Status != scene.Status {
				scene.Status = status.Status
				changed = true
			}
			if status.VideoURL != "" && scene.VideoURL == "" {
				scene.VideoURL = status.VideoURL
				content.Media = append(content.Media, models.MediaItem{
					Type: "video",
					URL:  status.VideoURL,
					GeneratedBy: &models.Provenance{
						Provider: "kling",
						Prompt:   scene.Prompt,
						Model:    "kling-v1",
					},
				})
				changed = true
			}
		}
		if scene.Status != "succeed" {
			pending++
		}
	}

	if pending == 0 && len(content.AIGeneration.VideoScenes) > 0 && content.Status == models.ContentStatusDraft {
		content.Status = models.ContentStatusReady
		changed = true
	}

	if changed {
		if err := s.c.UpdateGeneration(ctx, content); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (s *generateService) ContentStatus(ctx context.Context, userID, contentID int64) (*models.Content, error) {
	content, err := s.c.GetByID(ctx, contentID, userID)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}
	return content, nil
}

func (s *generateService) RefreshVideoScenes(ctx context.Context, content *models.Content) error {
	pending := 0
	changed := false

	for i := range content.AIGeneration.VideoScenes {
		scene := &content.AIGeneration.VideoScenes[i]
		if scene.Status == "succeed" || scene.TaskID == "" {
			continue
		}

		status, err := s.pollTask(ctx, scene.TaskID)
		if err != nil {
			slog.Info(err.Error())
			pending++
			continue
		}

		if status.Status != scene.Status {
			scene.Status = status.Status
			changed = true
		}
		if status.VideoURL != "" && scene.VideoURL == "" {
			scene.VideoURL = status.VideoURL
			content.Media = append(content.Media, models.MediaItem{
				Type: "video",
				URL:  status.VideoURL,
				GeneratedBy: &models.Provenance{
					Provider: "kling",
					Prompt:   scene.Prompt,
					Model:    "kling-v1",
				},
			})
			changed = true
		}
		if status.Status != "succeed" {
			pending++
		}
	}

	if pending == 0 && len(content.AIGeneration.VideoScenes) > 0 && content.Status == models.ContentStatusDraft {
		content.Status = models.ContentStatusReady
		changed = true
	}

	if changed {
		return s.c.UpdateGeneration(ctx, content)
	}
	return nil
}

// klingToken mints the short-lived HS256 JWT the Kling API expects:
// issuer is the API key, secret signs, 30 minute expiry with 5 seconds
// of clock skew allowance.
func (s *generateService) klingToken() (string, error) {
	now := time.Now().Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": s.config.KlingAPIKey,
		"exp": now + 1800,
		"nbf": now - 5,
	})
	return token.SignedString([]byte(s.config.KlingAPISecret))
}
