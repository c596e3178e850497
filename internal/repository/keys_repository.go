package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/v9cf/contentfactory/internal/models"
)

type ApiKeyRepository interface {
	GetActiveByHash(ctx context.Context, keyHash string) (*models.ApiKey, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	CountActiveByUserID(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, key *models.ApiKey) (int64, error)
	RecordUsage(ctx context.Context, id int64, usedAt time.Time) error
	Deactivate(ctx context.Context, id, userID int64) (bool, error)
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, key_last4, scopes,
	requests_per_minute, requests_per_day, total_requests, last_used_at,
	is_active, expires_at, created_at`

func scanApiKey(row interface{ Scan(...interface{}) error }) (*models.ApiKey, error) {
	var k models.ApiKey
	err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.KeyLast4,
		pq.Array(&k.Scopes), &k.RequestsPerMinute, &k.RequestsPerDay,
		&k.TotalRequests, &k.LastUsedAt, &k.IsActive, &k.ExpiresAt, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeyRepository) GetActiveByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = $1 AND is_active = TRUE`
	key, err := scanApiKey(r.db.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return key, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		key, err := scanApiKey(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) CountActiveByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM api_keys WHERE user_id = $1 AND is_active = TRUE"
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) (int64, error) {
	query := `
		INSERT INTO api_keys (user_id, name, key_hash, key_prefix, key_last4, scopes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, key.UserID, key.Name, key.KeyHash,
		key.KeyPrefix, key.KeyLast4, pq.Array(key.Scopes), key.ExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *apiKeyRepository) RecordUsage(ctx context.Context, id int64, usedAt time.Time) error {
	query := `
		UPDATE api_keys
		SET total_requests = total_requests + 1,
			last_used_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, usedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Deactivate is the soft revoke: the row stays for audit, the key can
// never authenticate again.
func (r *apiKeyRepository) Deactivate(ctx context.Context, id, userID int64) (bool, error) {
	query := `UPDATE api_keys SET is_active = FALSE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}
