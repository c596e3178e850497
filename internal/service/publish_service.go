package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/v9cf/contentfactory/internal/metrics"
	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/platform"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/transfer"
)

// DispatchScheduler hands a post id to the delayed-task queue. The worker
// on the other end calls PublishService.Dispatch.
type DispatchScheduler interface {
	ScheduleDispatch(postID int64, delay time.Duration) error
}

// PublishService owns the post lifecycle. Publish records the intent with
// an immutable content snapshot; Dispatch performs the platform call
// exactly once per post, guarded by a status compare-and-swap so that
// duplicate queue deliveries and sweep overlaps are no-ops.
type PublishService interface {
	Publish(ctx context.Context, userID int64, apiKeyID int64, intent *transfer.PublishIntent) (*transfer.PublishOutcome, error)
	Dispatch(ctx context.Context, postID int64) error
	List(ctx context.Context, userID int64, limit int) ([]*transfer.PostInfo, error)
	Get(ctx context.Context, userID, postID int64) (*transfer.PostInfo, error)
	// DispatchDue claims and dispatches posts whose schedule has passed.
	// It backstops lost queue deliveries.
	DispatchDue(ctx context.Context) error
	Remove(ctx context.Context, userID, postID int64) error
}

type publishService struct {
	p         repository.PostRepository
	c         repository.ContentRepository
	accounts  AccountService
	adapters  *platform.Registry
	scheduler DispatchScheduler
	collector *metrics.PublishCollector
}

func NewPublishService(
	p repository.PostRepository,
	c repository.ContentRepository,
	accounts AccountService,
	adapters *platform.Registry,
	scheduler DispatchScheduler,
	collector *metrics.PublishCollector) PublishService {
	return &publishService{
		p:         p,
		c:         c,
		accounts:  accounts,
		adapters:  adapters,
		scheduler: scheduler,
		collector: collector,
	}
}

func (s *publishService) Publish(ctx context.Context, userID int64, apiKeyID int64, intent *transfer.PublishIntent) (*transfer.PublishOutcome, error) {
	pf := models.Platform(intent.Platform)
	if !models.KnownPlatform(pf) {
		return nil, ErrValidation
	}

	account, err := s.accounts.Resolve(ctx, userID, intent.AccountID, pf)
	if err != nil {
		return nil, err
	}

	snapshot, contentID, err := s.snapshot(ctx, userID, account, intent)
	if err != nil {
		return nil, err
	}
	if snapshot.Text == "" && len(snapshot.MediaURLs) == 0 {
		return nil, ErrValidation
	}
	snapshot.Text = platform.FormatForPlatform(snapshot.Text, pf, snapshot.Hashtags)

	var scheduledFor sql.NullTime
	if intent.ScheduledFor != "" {
		at, err := time.Parse(time.RFC3339, intent.ScheduledFor)
		if err != nil {
			return nil, ErrValidation
		}
		if at.Before(time.Now()) {
			return nil, ErrValidation
		}
		scheduledFor = sql.NullTime{Time: at, Valid: true}
	}

	requestID, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	status := models.PostStatusDraft
	if scheduledFor.Valid {
		status = models.PostStatusScheduled
	}

	post := &models.Post{
		UserID:           userID,
		ContentID:        contentID,
		AccountID:        account.ID,
		Platform:         pf,
		Status:           status,
		RequestID:        requestID,
		ScheduledFor:     scheduledFor,
		PublishedContent: *snapshot,
	}
	if apiKeyID > 0 {
		post.APIKeyID = sql.NullInt64{Int64: apiKeyID, Valid: true}
	}

	id, err := s.p.Create(ctx, post)
	if err != nil {
		return nil, err
	}
	post.ID = id

	if scheduledFor.Valid {
		if err := s.scheduler.ScheduleDispatch(id, time.Until(scheduledFor.Time)); err != nil {
			slog.Info(err.Error())
		}
		return &transfer.PublishOutcome{
			PostID:       id,
			Status:       models.PostStatusScheduled,
			Platform:     intent.Platform,
			ScheduledFor: &scheduledFor.Time,
		}, nil
	}

	if err := s.Dispatch(ctx, id); err != nil {
		return nil, err
	}

	final, err := s.p.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome := &transfer.PublishOutcome{
		PostID:   id,
		Status:   final.Status,
		Platform: intent.Platform,
	}
	if final.PlatformPostID.Valid {
		outcome.PlatformPostID = final.PlatformPostID.String
	}
	if final.PlatformPostURL.Valid {
		outcome.PlatformPostURL = final.PlatformPostURL.String
	}
	if final.Error.Message.Valid {
		outcome.Error = final.Error.Message.String
	}
	return outcome, nil
}

// snapshot fixes the text, media and hashtags sent to the platform.
// Explicit intent fields win; the referenced content fills the gaps, and
// the account's default hashtags apply only when nothing else set any.
// The caller platform-formats the text before persisting, so the stored
// snapshot is byte-for-byte what the adapter sends.
func (s *publishService) snapshot(ctx context.Context, userID int64, account *models.ConnectedAccount, intent *transfer.PublishIntent) (*models.PublishedContent, sql.NullInt64, error) {
	snapshot := &models.PublishedContent{
		Text:      intent.Text,
		MediaURLs: intent.MediaURLs,
		Hashtags:  intent.Hashtags,
	}

	var contentID sql.NullInt64
	if intent.ContentID > 0 {
		content, err := s.c.GetByID(ctx, intent.ContentID, userID)
		if err != nil {
			return nil, contentID, err
		}
		if content == nil {
			return nil, contentID, ErrContentNotFound
		}
		contentID = sql.NullInt64{Int64: content.ID, Valid: true}

		if snapshot.Text == "" {
			snapshot.Text = content.Text
		}
		if len(snapshot.MediaURLs) == 0 {
			snapshot.MediaURLs = content.MediaURLs()
		}
		if len(snapshot.Hashtags) == 0 {
			snapshot.Hashtags = content.Tags
		}
	}

	if len(snapshot.Hashtags) == 0 {
		snapshot.Hashtags = account.Settings.DefaultHashtags
	}
	if snapshot.MediaURLs == nil {
		snapshot.MediaURLs = []string{}
	}
	if snapshot.Hashtags == nil {
		snapshot.Hashtags = []string{}
	}
	return snapshot, contentID, nil
}

func (s *publishService) Dispatch(ctx context.Context, postID int64) error {
	post, err := s.p.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	claimed, err := s.p.ClaimForPublishing(ctx, postID, []string{models.PostStatusScheduled, models.PostStatusDraft})
	if err != nil {
		return err
	}
	if !claimed {
		// Already publishing, published or failed: another delivery won.
		return nil
	}

	adapter, ok := s.adapters.Lookup(post.Platform)
	if !ok {
		return s.fail(ctx, post, "no publishing adapter for platform", "unsupported_platform")
	}

	account, err := s.accounts.Resolve(ctx, post.UserID, post.AccountID, post.Platform)
	if err != nil {
		return s.fail(ctx, post, err.Error(), "account_unavailable")
	}

	tokens, err := s.accounts.DecryptTokens(ctx, account)
	if err != nil {
		return s.fail(ctx, post, err.Error(), "credential_integrity")
	}

	started := time.Now()
	outcome := adapter.Publish(ctx, tokens, platform.Content{
		Text:      post.PublishedContent.Text,
		MediaURLs: post.PublishedContent.MediaURLs,
	})
	elapsed := time.Since(started)

	if outcome.Success {
		s.collector.ObserveDispatch(string(post.Platform), models.PostStatusPublished, elapsed)

		if _, err := s.p.MarkPublished(ctx, postID, outcome.PlatformPostID, outcome.PlatformPostURL, time.Now()); err != nil {
			return err
		}
		if err := s.accounts.MarkUsed(ctx, account.ID); err != nil {
			slog.Info(err.Error())
		}
		if post.ContentID.Valid {
			if err := s.c.UpdateStatus(ctx, post.ContentID.Int64, models.ContentStatusPublished); err != nil {
				slog.Info(err.Error())
			}
		}
		return nil
	}

	s.collector.ObserveDispatch(string(post.Platform), models.PostStatusFailed, elapsed)
	if err := s.accounts.RecordFailure(ctx, account.ID, outcome.Error, outcome.ErrorCode); err != nil {
		slog.Info(err.Error())
	}
	return s.fail(ctx, post, outcome.Error, outcome.ErrorCode)
}

func (s *publishService) fail(ctx context.Context, post *models.Post, message, code string) error {
	slog.Info(message)
	if _, err := s.p.MarkFailed(ctx, post.ID, message, code, time.Now()); err != nil {
		return err
	}
	if post.ContentID.Valid {
		if err := s.c.UpdateStatus(ctx, post.ContentID.Int64, models.ContentStatusFailed); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

func (s *publishService) DispatchDue(ctx context.Context) error {
	due, err := s.p.ListDue(ctx, time.Now(), 100)
	if err != nil {
		return err
	}

	for _, post := range due {
		if err := s.Dispatch(ctx, post.ID); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

func (s *publishService) List(ctx context.Context, userID int64, limit int) ([]*transfer.PostInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	posts, err := s.p.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]*transfer.PostInfo, 0, len(posts))
	for _, post := range posts {
		infos = append(infos, postInfo(post))
	}
	return infos, nil
}

func (s *publishService) Get(ctx context.Context, userID, postID int64) (*transfer.PostInfo, error) {
	post, err := s.p.GetByIDForUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return postInfo(post), nil
}

func (s *publishService) Remove(ctx context.Context, userID, postID int64) error {
	removed, err := s.p.Remove(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrPostNotFound
	}
	return nil
}

func postInfo(post *models.Post) *transfer.PostInfo {
	info := &transfer.PostInfo{
		ID:        post.ID,
		Platform:  string(post.Platform),
		AccountID: post.AccountID,
		Status:    post.Status,
		Text:      post.PublishedContent.Text,
		MediaURLs: post.PublishedContent.MediaURLs,
		Hashtags:  post.PublishedContent.Hashtags,
		Analytics: transfer.PostAnalytics{
			Impressions: post.Analytics.Impressions,
			Reach:       post.Analytics.Reach,
			Likes:       post.Analytics.Likes,
			Comments:    post.Analytics.Comments,
			Shares:      post.Analytics.Shares,
			Clicks:      post.Analytics.Clicks,
			Engagement:  post.Analytics.Engagement,
		},
		CreatedAt: post.CreatedAt,
	}
	if info.MediaURLs == nil {
		info.MediaURLs = []string{}
	}
	if info.Hashtags == nil {
		info.Hashtags = []string{}
	}
	if post.ScheduledFor.Valid {
		info.ScheduledFor = &post.ScheduledFor.Time
	}
	if post.PublishedAt.Valid {
		info.PublishedAt = &post.PublishedAt.Time
	}
	if post.PlatformPostID.Valid {
		info.PlatformPostID = post.PlatformPostID.String
	}
	if post.PlatformPostURL.Valid {
		info.PlatformPostURL = post.PlatformPostURL.String
	}
	if post.Analytics.LastUpdated.Valid {
		info.Analytics.LastUpdated = &post.Analytics.LastUpdated.Time
	}
	if post.Error.Message.Valid {
		info.Error = post.Error.Message.String
	}
	if post.Error.Code.Valid {
		info.ErrorCode = post.Error.Code.String
	}
	return info
}
