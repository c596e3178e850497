package models

import (
	"database/sql"
	"time"
)

// ScopeAll grants every permission.
const ScopeAll = "*"

// DefaultScopes are assigned when a key is issued without explicit scopes.
var DefaultScopes = []string{"content:read", "content:write", "publish:write", "analytics:read"}

// ApiKey is a programmatic-access credential. Only the hash of the key is
// stored; the raw secret is shown once at issue time.
type ApiKey struct {
	ID        int64    `db:"id" json:"id"`
	UserID    int64    `db:"user_id" json:"user_id"`
	Name      string   `db:"name" json:"name"`
	KeyHash   string   `db:"key_hash" json:"-"`
	KeyPrefix string   `db:"key_prefix" json:"key_prefix"`
	KeyLast4  string   `db:"key_last4" json:"key_last4"`
	Scopes    []string `db:"scopes" json:"scopes"`

	RequestsPerMinute int `db:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerDay    int `db:"requests_per_day" json:"requests_per_day"`

	TotalRequests int64        `db:"total_requests" json:"total_requests"`
	LastUsedAt    sql.NullTime `db:"last_used_at" json:"-"`

	IsActive  bool         `db:"is_active" json:"is_active"`
	ExpiresAt sql.NullTime `db:"expires_at" json:"-"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// HasScope reports whether the key grants the required scope.
func (k *ApiKey) HasScope(required string) bool {
	for _, s := range k.Scopes {
		if s == required || s == ScopeAll {
			return true
		}
	}
	return false
}
