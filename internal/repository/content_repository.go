package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/v9cf/contentfactory/internal/models"
)

type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) (int64, error)
	GetByID(ctx context.Context, id, userID int64) (*models.Content, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Content, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateGeneration(ctx context.Context, content *models.Content) error
	FindBySceneTaskID(ctx context.Context, userID int64, taskID string) (*models.Content, error)
	Remove(ctx context.Context, id, userID int64) (bool, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, user_id, content_type, status, title, body_text,
	media, ai_generation, tags, folder, created_at, updated_at`

func scanContent(row interface{ Scan(...interface{}) error }) (*models.Content, error) {
	var c models.Content
	err := row.Scan(&c.ID, &c.UserID, &c.Type, &c.Status, &c.Title, &c.Text,
		&c.Media, &c.AIGeneration, pq.Array(&c.Tags), &c.Folder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) Create(ctx context.Context, content *models.Content) (int64, error) {
	query := `
		INSERT INTO contents (user_id, content_type, status, title, body_text, media, ai_generation, tags, folder)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	folder := content.Folder
	if folder == "" {
		folder = "Uncategorized"
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query, content.UserID, content.Type, content.Status,
		content.Title, content.Text, content.Media, content.AIGeneration,
		pq.Array(content.Tags), folder).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id, userID int64) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1 AND user_id = $2`
	content, err := scanContent(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return content, nil
}

func (r *contentRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (r *contentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE contents SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateGeneration rewrites the generated fields after a generator call or
// a video task poll.
func (r *contentRepository) UpdateGeneration(ctx context.Context, content *models.Content) error {
	query := `
		UPDATE contents
		SET status = $1,
			body_text = $2,
			media = $3,
			ai_generation = $4,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, content.Status, content.Text,
		content.Media, content.AIGeneration, time.Now(), content.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// FindBySceneTaskID locates the content record owning a video scene task.
func (r *contentRepository) FindBySceneTaskID(ctx context.Context, userID int64, taskID string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + `
		FROM contents
		WHERE user_id = $1
		AND ai_generation->'videoScenes' @> $2::jsonb
		LIMIT 1`
	match, err := json.Marshal([]map[string]string{{"taskId": taskID}})
	if err != nil {
		return nil, err
	}
	content, err := scanContent(r.db.QueryRowContext(ctx, query, userID, match))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return content, nil
}

func (r *contentRepository) Remove(ctx context.Context, id, userID int64) (bool, error) {
	query := `DELETE FROM contents WHERE id = $1 AND user_id = $2`
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
