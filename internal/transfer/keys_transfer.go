package transfer

import "time"

// KeyCreation is the POST /keys payload.
type KeyCreation struct {
	Name          string   `json:"name,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
	ExpiresInDays int      `json:"expiresInDays,omitempty"`
}

// IssuedKey is returned once at creation; Key is never shown again.
type IssuedKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	KeyPreview string     `json:"keyPreview"`
	Scopes     []string   `json:"scopes"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// KeyInfo is the list read model; no key material beyond the preview.
type KeyInfo struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	KeyPreview    string     `json:"keyPreview"`
	Scopes        []string   `json:"scopes"`
	IsActive      bool       `json:"isActive"`
	TotalRequests int64      `json:"totalRequests"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
