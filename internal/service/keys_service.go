package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/transfer"
	"github.com/v9cf/contentfactory/pkg/crypto"
)

const maxActiveKeys = 5

var knownScopes = map[string]bool{
	models.ScopeAll:  true,
	"content:read":   true,
	"content:write":  true,
	"publish:write":  true,
	"analytics:read": true,
	"accounts:read":  true,
	"accounts:write": true,
}

type ApiKeyService interface {
	Issue(ctx context.Context, userID int64, creation *transfer.KeyCreation) (*transfer.IssuedKey, error)
	List(ctx context.Context, userID int64) ([]*transfer.KeyInfo, error)
	// Authenticate resolves a raw bearer key to its active record. The
	// lookup is by hash; the raw secret is never compared or stored.
	Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error)
	Revoke(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
	u repository.UserRepository
}

func NewApiKeyService(k repository.ApiKeyRepository, u repository.UserRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
		u: u,
	}
}

func (s *apiKeyService) Issue(ctx context.Context, userID int64, creation *transfer.KeyCreation) (*transfer.IssuedKey, error) {
	user, exists, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if user.Plan != "enterprise" {
		count, err := s.k.CountActiveByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= maxActiveKeys {
			slog.Info(ErrKeyLimit.Error())
			return nil, ErrKeyLimit
		}
	}

	scopes := creation.Scopes
	if len(scopes) == 0 {
		scopes = models.DefaultScopes
	}
	for _, scope := range scopes {
		if !knownScopes[scope] {
			return nil, ErrValidation
		}
	}

	generated, err := crypto.GenerateAPIKey()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	name := strings.TrimSpace(creation.Name)
	if name == "" {
		name = "API Key"
	}

	key := &models.ApiKey{
		UserID:    userID,
		Name:      name,
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		KeyLast4:  generated.Last4,
		Scopes:    scopes,
	}
	if creation.ExpiresInDays > 0 {
		key.ExpiresAt = sql.NullTime{Time: time.Now().AddDate(0, 0, creation.ExpiresInDays), Valid: true}
	}

	id, err := s.k.Create(ctx, key)
	if err != nil {
		return nil, err
	}

	issued := &transfer.IssuedKey{
		ID:         id,
		Name:       name,
		Key:        generated.Key,
		KeyPreview: keyPreview(generated.Prefix, generated.Last4),
		Scopes:     scopes,
		CreatedAt:  time.Now(),
	}
	if key.ExpiresAt.Valid {
		issued.ExpiresAt = &key.ExpiresAt.Time
	}
	return issued, nil
}

func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (*models.ApiKey, error) {
	if !strings.HasPrefix(rawKey, crypto.APIKeyPrefix) {
		return nil, ErrMalformedKey
	}

	key, err := s.k.GetActiveByHash(ctx, crypto.HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrUnauthorized
	}

	if key.ExpiresAt.Valid && key.ExpiresAt.Time.Before(time.Now()) {
		return nil, ErrKeyExpired
	}

	// A key can outlive its user by a deletion; never let it act for
	// a user record that no longer exists.
	_, found, err := s.u.GetByID(ctx, key.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if err := s.k.RecordUsage(ctx, key.ID, time.Now()); err != nil {
		slog.Info(err.Error())
	}
	return key, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*transfer.KeyInfo, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*transfer.KeyInfo, 0, len(keys))
	for _, key := range keys {
		info := &transfer.KeyInfo{
			ID:            key.ID,
			Name:          key.Name,
			KeyPreview:    keyPreview(key.KeyPrefix, key.KeyLast4),
			Scopes:        key.Scopes,
			IsActive:      key.IsActive,
			TotalRequests: key.TotalRequests,
			CreatedAt:     key.CreatedAt,
		}
		if key.LastUsedAt.Valid {
			info.LastUsedAt = &key.LastUsedAt.Time
		}
		if key.ExpiresAt.Valid {
			info.ExpiresAt = &key.ExpiresAt.Time
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *apiKeyService) Revoke(ctx context.Context, userID, keyID int64) error {
	revoked, err := s.k.Deactivate(ctx, keyID, userID)
	if err != nil {
		return err
	}
	if !revoked {
		return ErrUnauthorized
	}
	return nil
}

func keyPreview(prefix, last4 string) string {
	return prefix + "..." + last4
}
