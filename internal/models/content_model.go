package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeVideo    = "video"
	ContentTypeReel     = "reel"
	ContentTypeCarousel = "carousel"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusReady     = "ready"
	ContentStatusPublished = "published"
	ContentStatusFailed    = "failed"
	ContentStatusArchived  = "archived"
)

// Content is a platform-agnostic content artifact prior to publishing.
type Content struct {
	ID           int64        `db:"id" json:"id"`
	UserID       int64        `db:"user_id" json:"user_id"`
	Type         string       `db:"content_type" json:"type"`
	Status       string       `db:"status" json:"status"`
	Title        string       `db:"title" json:"title"`
	Text         string       `db:"body_text" json:"text"`
	Media        MediaList    `db:"media" json:"media"`
	AIGeneration AIGeneration `db:"ai_generation" json:"ai_generation"`
	Tags         []string     `db:"tags" json:"tags"`
	Folder       string       `db:"folder" json:"folder"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// MediaItem is one ordered media asset on a content record.
type MediaItem struct {
	Type         string      `json:"type"` // image, video, audio
	URL          string      `json:"url"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	MimeType     string      `json:"mimeType,omitempty"`
	Width        int         `json:"width,omitempty"`
	Height       int         `json:"height,omitempty"`
	Duration     float64     `json:"duration,omitempty"`
	Size         int64       `json:"size,omitempty"`
	GeneratedBy  *Provenance `json:"generatedWith,omitempty"`
}

// Provenance records how a media asset was generated.
type Provenance struct {
	Provider string `json:"provider"`
	Prompt   string `json:"prompt,omitempty"`
	Model    string `json:"model,omitempty"`
}

// VideoScene is one scene of an asynchronously generated video, tracked
// by the external provider's task id.
type VideoScene struct {
	SceneNumber int     `json:"sceneNumber"`
	Prompt      string  `json:"prompt"`
	Duration    float64 `json:"duration,omitempty"`
	TaskID      string  `json:"taskId,omitempty"`
	Status      string  `json:"status,omitempty"`
	VideoURL    string  `json:"videoUrl,omitempty"`
}

// AIGeneration holds the prompts and task state behind generated content.
type AIGeneration struct {
	TextPrompt    string       `json:"textPrompt,omitempty"`
	ImagePrompt   string       `json:"imagePrompt,omitempty"`
	VideoScenes   []VideoScene `json:"videoScenes,omitempty"`
	VoiceoverText string       `json:"voiceoverText,omitempty"`
	VoiceID       string       `json:"voiceId,omitempty"`
}

// MediaList stores ordered media items as a JSONB column.
type MediaList []MediaItem

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *MediaList) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// Value implements driver.Valuer so AIGeneration persists as JSONB.
func (g AIGeneration) Value() (driver.Value, error) {
	return json.Marshal(g)
}

func (g *AIGeneration) Scan(src interface{}) error {
	return scanJSON(src, g)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported column type for json document")
	}
}

// MediaURLs returns the asset URLs in display order.
func (c *Content) MediaURLs() []string {
	urls := make([]string, 0, len(c.Media))
	for _, m := range c.Media {
		urls = append(urls, m.URL)
	}
	return urls
}
