package models

import (
	"database/sql"
	"time"
)

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// Post tracks one publish intent through its lifecycle:
//
//	draft -> scheduled -> publishing -> published | failed
//	draft -> publishing -> published | failed
//
// published and failed are terminal; recovery is a new Post, not a
// mutation of this one.
type Post struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	ContentID sql.NullInt64 `db:"content_id" json:"-"`
	AccountID int64         `db:"account_id" json:"account_id"`
	Platform  Platform      `db:"platform" json:"platform"`
	Status    string        `db:"status" json:"status"`
	RequestID string        `db:"request_id" json:"request_id"`
	APIKeyID  sql.NullInt64 `db:"api_key_id" json:"-"`

	ScheduledFor sql.NullTime `db:"scheduled_for" json:"-"`
	PublishedAt  sql.NullTime `db:"published_at" json:"-"`

	PlatformPostID  sql.NullString `db:"platform_post_id" json:"-"`
	PlatformPostURL sql.NullString `db:"platform_post_url" json:"-"`

	// Snapshot of what was actually sent, fixed at creation time. Later
	// edits to the source content must not change it.
	PublishedContent PublishedContent `db:"-" json:"published_content"`

	Analytics PostAnalytics `db:"-" json:"analytics"`
	Error     PostError     `db:"-" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PublishedContent is the immutable text/media/hashtag snapshot.
type PublishedContent struct {
	Text      string   `db:"content_text" json:"text"`
	MediaURLs []string `db:"media_urls" json:"media_urls"`
	Hashtags  []string `db:"hashtags" json:"hashtags"`
}

// PostAnalytics counters are populated by an external collector.
type PostAnalytics struct {
	Impressions int          `db:"impressions" json:"impressions"`
	Reach       int          `db:"reach" json:"reach"`
	Likes       int          `db:"likes" json:"likes"`
	Comments    int          `db:"comments" json:"comments"`
	Shares      int          `db:"shares" json:"shares"`
	Clicks      int          `db:"clicks" json:"clicks"`
	Engagement  float64      `db:"engagement" json:"engagement"`
	LastUpdated sql.NullTime `db:"analytics_updated_at" json:"-"`
}

// PostError is the failure snapshot of a terminal failed dispatch.
type PostError struct {
	Message    sql.NullString `db:"error_message"`
	Code       sql.NullString `db:"error_code"`
	OccurredAt sql.NullTime   `db:"error_at"`
	RetryCount int            `db:"retry_count"`
}
