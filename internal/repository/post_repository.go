package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/v9cf/contentfactory/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Post, error)
	// ClaimForPublishing compare-and-swaps status into publishing. It
	// returns false when the post is in any other state, which makes
	// dispatch a no-op under duplicate scheduler triggers.
	ClaimForPublishing(ctx context.Context, id int64, from []string) (bool, error)
	MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string, publishedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, message, code string, occurredAt time.Time) (bool, error)
	ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error)
	Remove(ctx context.Context, id, userID int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content_id, account_id, platform, status, request_id,
	api_key_id, scheduled_for, published_at, platform_post_id, platform_post_url,
	content_text, media_urls, hashtags,
	impressions, reach, likes, comments, shares, clicks, engagement, analytics_updated_at,
	error_message, error_code, error_at, retry_count, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.UserID, &p.ContentID, &p.AccountID, &p.Platform, &p.Status,
		&p.RequestID, &p.APIKeyID, &p.ScheduledFor, &p.PublishedAt,
		&p.PlatformPostID, &p.PlatformPostURL,
		&p.PublishedContent.Text, pq.Array(&p.PublishedContent.MediaURLs), pq.Array(&p.PublishedContent.Hashtags),
		&p.Analytics.Impressions, &p.Analytics.Reach, &p.Analytics.Likes, &p.Analytics.Comments,
		&p.Analytics.Shares, &p.Analytics.Clicks, &p.Analytics.Engagement, &p.Analytics.LastUpdated,
		&p.Error.Message, &p.Error.Code, &p.Error.OccurredAt, &p.Error.RetryCount,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (
			user_id, content_id, account_id, platform, status, request_id, api_key_id,
			scheduled_for, content_text, media_urls, hashtags
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.ContentID, post.AccountID, post.Platform, post.Status,
		post.RequestID, post.APIKeyID, post.ScheduledFor,
		post.PublishedContent.Text, pq.Array(post.PublishedContent.MediaURLs),
		pq.Array(post.PublishedContent.Hashtags),
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) ClaimForPublishing(ctx context.Context, id int64, from []string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, pq.Array(from))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// MarkPublished finishes a dispatch. Guarded on the publishing state so a
// late or duplicate writer cannot rewrite a terminal record.
func (r *postRepository) MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string, publishedAt time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			platform_post_id = $2,
			platform_post_url = $3,
			published_at = $4,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublished,
		platformPostID, platformPostURL, publishedAt, id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, message, code string, occurredAt time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			error_code = $3,
			error_at = $4,
			retry_count = retry_count + 1,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed,
		message, code, occurredAt, id, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// ListDue returns scheduled posts whose time has come. The cron sweep
// uses it to catch posts whose queue delivery was missed.
func (r *postRepository) ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, before, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Remove(ctx context.Context, id, userID int64) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`
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
