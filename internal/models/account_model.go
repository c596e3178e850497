package models

import (
	"database/sql"
	"time"

	"github.com/v9cf/contentfactory/pkg/crypto"
)

const (
	AccountStatusActive  = "active"
	AccountStatusExpired = "expired"
	AccountStatusRevoked = "revoked"
	AccountStatusError   = "error"
)

// ConnectedAccount is one linked third-party social identity. The token
// bundle is stored only as vault output; the plaintext never touches the
// database.
type ConnectedAccount struct {
	ID                int64                `db:"id" json:"id"`
	UserID            int64                `db:"user_id" json:"user_id"`
	Platform          Platform             `db:"platform" json:"platform"`
	PlatformAccountID string               `db:"platform_account_id" json:"platform_account_id"`
	PlatformUsername  string               `db:"platform_username" json:"platform_username"`
	ProfilePicture    string               `db:"profile_picture_url" json:"profile_picture"`
	EncryptedTokens   crypto.EncryptedData `db:"-" json:"-"`
	TokenExpiresAt    sql.NullTime         `db:"token_expires_at" json:"-"`
	Status            string               `db:"status" json:"status"`
	LastUsedAt        sql.NullTime         `db:"last_used_at" json:"-"`
	LastError         AccountError         `db:"-" json:"-"`
	Settings          AccountSettings      `db:"-" json:"settings"`
	CreatedAt         time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `db:"updated_at" json:"updated_at"`
}

// AccountError is the last adapter failure observed for the account.
type AccountError struct {
	Message    sql.NullString `db:"last_error_message"`
	Code       sql.NullString `db:"last_error_code"`
	OccurredAt sql.NullTime   `db:"last_error_at"`
}

// AccountSettings are per-account publishing preferences.
type AccountSettings struct {
	AutoPost        bool     `db:"auto_post" json:"auto_post"`
	DefaultHashtags []string `db:"default_hashtags" json:"default_hashtags"`
}

// TokenBundle is the decrypted credential payload. Fields beyond the
// access token are platform-specific: Instagram needs the IG account id,
// Facebook a page id, LinkedIn a person URN.
type TokenBundle struct {
	AccessToken        string     `json:"accessToken"`
	AccessTokenSecret  string     `json:"accessTokenSecret,omitempty"`
	RefreshToken       string     `json:"refreshToken,omitempty"`
	TokenType          string     `json:"tokenType,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	AccountID          string     `json:"accountId,omitempty"`
	Username           string     `json:"username,omitempty"`
	InstagramAccountID string     `json:"instagramAccountId,omitempty"`
	PageID             string     `json:"pageId,omitempty"`
	PersonURN          string     `json:"personUrn,omitempty"`
}
