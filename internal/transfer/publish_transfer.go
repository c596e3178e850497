package transfer

import "time"

// PublishIntent is the inbound publish request. Platform is the only
// required field; explicit text/media/hashtags override the referenced
// content's fields in the snapshot.
type PublishIntent struct {
	ContentID    int64    `json:"contentId,omitempty"`
	Platform     string   `json:"platform"`
	AccountID    int64    `json:"accountId,omitempty"`
	Text         string   `json:"text,omitempty"`
	MediaURLs    []string `json:"mediaUrls,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	ScheduledFor string   `json:"scheduledFor,omitempty"` // RFC 3339
}

// PublishOutcome is the outbound result of a publish intent.
type PublishOutcome struct {
	PostID          int64      `json:"postId"`
	Status          string     `json:"status"`
	Platform        string     `json:"platform"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	PlatformPostID  string     `json:"platformPostId,omitempty"`
	PlatformPostURL string     `json:"platformPostUrl,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// PostInfo is the read model for GET /publish.
type PostInfo struct {
	ID              int64         `json:"id"`
	Platform        string        `json:"platform"`
	AccountID       int64         `json:"accountId"`
	Status          string        `json:"status"`
	ScheduledFor    *time.Time    `json:"scheduledFor,omitempty"`
	PublishedAt     *time.Time    `json:"publishedAt,omitempty"`
	PlatformPostID  string        `json:"platformPostId,omitempty"`
	PlatformPostURL string        `json:"platformPostUrl,omitempty"`
	Text            string        `json:"text"`
	MediaURLs       []string      `json:"mediaUrls"`
	Hashtags        []string      `json:"hashtags"`
	Analytics       PostAnalytics `json:"analytics"`
	Error           string        `json:"error,omitempty"`
	ErrorCode       string        `json:"errorCode,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// PostAnalytics mirrors the collector-maintained counters.
type PostAnalytics struct {
	Impressions int        `json:"impressions"`
	Reach       int        `json:"reach"`
	Likes       int        `json:"likes"`
	Comments    int        `json:"comments"`
	Shares      int        `json:"shares"`
	Clicks      int        `json:"clicks"`
	Engagement  float64    `json:"engagement"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}
