package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/v9cf/contentfactory/internal/models"
)

// ErrUniqueViolation reports an insert that collided with the
// (user, platform, platform_account_id) uniqueness constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

type AccountRepository interface {
	Create(ctx context.Context, account *models.ConnectedAccount) (int64, error)
	GetByID(ctx context.Context, id, userID int64) (*models.ConnectedAccount, error)
	FirstActiveByPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.ConnectedAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error)
	Exists(ctx context.Context, userID int64, platform models.Platform, platformAccountID string) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	RecordError(ctx context.Context, id int64, message, code string, occurredAt time.Time) error
	Touch(ctx context.Context, id int64, usedAt time.Time) error
	UpdateSettings(ctx context.Context, id, userID int64, autoPost *bool, defaultHashtags *[]string) (bool, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	Remove(ctx context.Context, id, userID int64) (bool, error)
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, user_id, platform, platform_account_id, platform_username,
	profile_picture_url, token_ciphertext, token_iv, token_tag, token_expires_at,
	status, last_used_at, last_error_message, last_error_code, last_error_at,
	auto_post, default_hashtags, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.ConnectedAccount, error) {
	var a models.ConnectedAccount
	err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.PlatformAccountID, &a.PlatformUsername,
		&a.ProfilePicture, &a.EncryptedTokens.Ciphertext, &a.EncryptedTokens.IV,
		&a.EncryptedTokens.Tag, &a.TokenExpiresAt, &a.Status, &a.LastUsedAt,
		&a.LastError.Message, &a.LastError.Code, &a.LastError.OccurredAt,
		&a.Settings.AutoPost, pq.Array(&a.Settings.DefaultHashtags), &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.ConnectedAccount) (int64, error) {
	query := `
		INSERT INTO connected_accounts (
			user_id, platform, platform_account_id, platform_username,
			profile_picture_url, token_ciphertext, token_iv, token_tag,
			token_expires_at, status, auto_post, default_hashtags
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Platform, account.PlatformAccountID, account.PlatformUsername,
		account.ProfilePicture, account.EncryptedTokens.Ciphertext, account.EncryptedTokens.IV,
		account.EncryptedTokens.Tag, account.TokenExpiresAt, account.Status,
		account.Settings.AutoPost, pq.Array(account.Settings.DefaultHashtags),
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrUniqueViolation
		}
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id, userID int64) (*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE id = $1 AND user_id = $2`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) FirstActiveByPlatform(ctx context.Context, userID int64, platform models.Platform) (*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM connected_accounts
		WHERE user_id = $1 AND platform = $2 AND status = $3
		ORDER BY created_at ASC
		LIMIT 1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, userID, platform, models.AccountStatusActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ConnectedAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) Exists(ctx context.Context, userID int64, platform models.Platform, platformAccountID string) (bool, error) {
	query := `SELECT 1 FROM connected_accounts WHERE user_id = $1 AND platform = $2 AND platform_account_id = $3`
	var result int
	err := r.db.QueryRowContext(ctx, query, userID, platform, platformAccountID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

func (r *accountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE connected_accounts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) RecordError(ctx context.Context, id int64, message, code string, occurredAt time.Time) error {
	query := `
		UPDATE connected_accounts
		SET last_error_message = $1,
			last_error_code = $2,
			last_error_at = $3,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, message, code, occurredAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) Touch(ctx context.Context, id int64, usedAt time.Time) error {
	query := `UPDATE connected_accounts SET last_used_at = $1, updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, usedAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) UpdateSettings(ctx context.Context, id, userID int64, autoPost *bool, defaultHashtags *[]string) (bool, error) {
	query := `
		UPDATE connected_accounts
		SET auto_post = COALESCE($1, auto_post),
			default_hashtags = COALESCE($2, default_hashtags),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND user_id = $4
	`
	var hashtags interface{}
	if defaultHashtags != nil {
		hashtags = pq.Array(*defaultHashtags)
	}
	result, err := r.db.ExecContext(ctx, query, autoPost, hashtags, id, userID)
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

// ExpireDue flips active accounts whose token expiry has passed.
func (r *accountRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE connected_accounts
		SET status = $1, updated_at = $2
		WHERE status = $3 AND token_expires_at IS NOT NULL AND token_expires_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, models.AccountStatusExpired, now, models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accountRepository) Remove(ctx context.Context, id, userID int64) (bool, error) {
	query := `DELETE FROM connected_accounts WHERE id = $1 AND user_id = $2`
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
