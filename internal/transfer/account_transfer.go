package transfer

import "time"

// AccountConnection is the manual credential-entry payload for POST
// /accounts. Credentials is the raw token bundle; it is encrypted as one
// vault payload and never persisted in the clear.
type AccountConnection struct {
	Platform    string             `json:"platform"`
	Credentials ConnectionTokens   `json:"credentials"`
	ProfileInfo *ConnectionProfile `json:"profileInfo,omitempty"`
}

// ConnectionTokens carries the third-party tokens being ingested.
type ConnectionTokens struct {
	AccessToken        string     `json:"accessToken"`
	AccessTokenSecret  string     `json:"accessTokenSecret,omitempty"`
	RefreshToken       string     `json:"refreshToken,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	AccountID          string     `json:"accountId,omitempty"`
	Username           string     `json:"username,omitempty"`
	InstagramAccountID string     `json:"instagramAccountId,omitempty"`
	PageID             string     `json:"pageId,omitempty"`
	PersonURN          string     `json:"personUrn,omitempty"`
}

// ConnectionProfile is optional display metadata for the account.
type ConnectionProfile struct {
	AccountID      string `json:"accountId,omitempty"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// AccountInfo is the read model for GET /accounts. Credential fields are
// deliberately absent.
type AccountInfo struct {
	ID               int64      `json:"id"`
	Platform         string     `json:"platform"`
	PlatformUsername string     `json:"platformUsername"`
	ProfilePicture   string     `json:"profilePicture,omitempty"`
	Status           string     `json:"status"`
	AutoPost         bool       `json:"autoPost"`
	DefaultHashtags  []string   `json:"defaultHashtags"`
	LastUsedAt       *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// AccountSettingsUpdate adjusts per-account publishing preferences.
type AccountSettingsUpdate struct {
	AccountID       int64     `json:"accountId"`
	AutoPost        *bool     `json:"autoPost,omitempty"`
	DefaultHashtags *[]string `json:"defaultHashtags,omitempty"`
}
