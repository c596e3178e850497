package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/platform"
	"github.com/v9cf/contentfactory/internal/repository"
)

var errUnique = repository.ErrUniqueViolation

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

// In-memory repository fakes. They implement just enough semantics for
// the services under test, including the status compare-and-swap on
// posts that the dispatch path depends on.

type fakePostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{nextID: 1, posts: make(map[int64]*models.Post)}
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := *post
	stored.ID = id
	stored.CreatedAt = time.Now()
	r.posts[id] = &stored
	return id, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) GetByIDForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil || post == nil || post.UserID != userID {
		return nil, err
	}
	return post, nil
}

func (r *fakePostRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) ClaimForPublishing(ctx context.Context, id int64, from []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if post.Status == status {
			post.Status = models.PostStatusPublishing
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id int64, platformPostID, platformPostURL string, publishedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusPublishing {
		return false, nil
	}
	post.Status = models.PostStatusPublished
	post.PlatformPostID = nullString(platformPostID)
	post.PlatformPostURL = nullString(platformPostURL)
	post.PublishedAt = nullTime(publishedAt)
	return true, nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id int64, message, code string, occurredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusPublishing {
		return false, nil
	}
	post.Status = models.PostStatusFailed
	post.Error.Message = nullString(message)
	post.Error.Code = nullString(code)
	post.Error.OccurredAt = nullTime(occurredAt)
	post.Error.RetryCount++
	return true, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, before time.Time, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.Post
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledFor.Valid && post.ScheduledFor.Time.Before(before) {
			copied := *post
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.UserID != userID {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

type fakeContentRepo struct {
	mu       sync.Mutex
	nextID   int64
	contents map[int64]*models.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{nextID: 1, contents: make(map[int64]*models.Content)}
}

func (r *fakeContentRepo) Create(ctx context.Context, content *models.Content) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := *content
	stored.ID = id
	r.contents[id] = &stored
	return id, nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id, userID int64) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[id]
	if !ok || content.UserID != userID {
		return nil, nil
	}
	copied := *content
	return &copied, nil
}

func (r *fakeContentRepo) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var contents []*models.Content
	for _, content := range r.contents {
		if content.UserID == userID {
			copied := *content
			contents = append(contents, &copied)
		}
	}
	return contents, nil
}

func (r *fakeContentRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if content, ok := r.contents[id]; ok {
		content.Status = status
	}
	return nil
}

func (r *fakeContentRepo) UpdateGeneration(ctx context.Context, content *models.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.contents[content.ID]; ok {
		stored.Media = content.Media
		stored.AIGeneration = content.AIGeneration
		stored.Status = content.Status
	}
	return nil
}

func (r *fakeContentRepo) FindBySceneTaskID(ctx context.Context, userID int64, taskID string) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, content := range r.contents {
		if content.UserID != userID {
			continue
		}
		for _, scene := range content.AIGeneration.VideoScenes {
			if scene.TaskID == taskID {
				copied := *content
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeContentRepo) Remove(ctx context.Context, id, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[id]
	if !ok || content.UserID != userID {
		return false, nil
	}
	delete(r.contents, id)
	return true, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*models.ConnectedAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{nextID: 1, accounts: make(map[int64]*models.ConnectedAccount)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.ConnectedAccount) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.UserID == account.UserID && existing.Platform == account.Platform &&
			existing.PlatformAccountID == account.PlatformAccountID {
			return 0, errUnique
		}
	}
	id := r.nextID
	r.nextID++
	stored := *account
	stored.ID = id
	stored.CreatedAt = time.Now()
	r.accounts[id] = &stored
	return id, nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id, userID int64) (*models.ConnectedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) FirstActiveByPlatform(ctx context.Context, userID int64, p models.Platform) (*models.ConnectedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *models.ConnectedAccount
	for _, account := range r.accounts {
		if account.UserID != userID || account.Platform != p || account.Status != models.AccountStatusActive {
			continue
		}
		if oldest == nil || account.ID < oldest.ID {
			oldest = account
		}
	}
	if oldest == nil {
		return nil, nil
	}
	copied := *oldest
	return &copied, nil
}

func (r *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var accounts []*models.ConnectedAccount
	for _, account := range r.accounts {
		if account.UserID == userID {
			copied := *account
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

func (r *fakeAccountRepo) Exists(ctx context.Context, userID int64, p models.Platform, platformAccountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.UserID == userID && account.Platform == p && account.PlatformAccountID == platformAccountID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.Status = status
	}
	return nil
}

func (r *fakeAccountRepo) RecordError(ctx context.Context, id int64, message, code string, occurredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.LastError.Message = nullString(message)
		account.LastError.Code = nullString(code)
		account.LastError.OccurredAt = nullTime(occurredAt)
	}
	return nil
}

func (r *fakeAccountRepo) Touch(ctx context.Context, id int64, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		account.LastUsedAt = nullTime(usedAt)
	}
	return nil
}

func (r *fakeAccountRepo) UpdateSettings(ctx context.Context, id, userID int64, autoPost *bool, defaultHashtags *[]string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return false, nil
	}
	if autoPost != nil {
		account.Settings.AutoPost = *autoPost
	}
	if defaultHashtags != nil {
		account.Settings.DefaultHashtags = *defaultHashtags
	}
	return true, nil
}

func (r *fakeAccountRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired int64
	for _, account := range r.accounts {
		if account.Status == models.AccountStatusActive && account.TokenExpiresAt.Valid && account.TokenExpiresAt.Time.Before(now) {
			account.Status = models.AccountStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (r *fakeAccountRepo) Remove(ctx context.Context, id, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.UserID != userID {
		return false, nil
	}
	delete(r.accounts, id)
	return true, nil
}

type fakeKeyRepo struct {
	mu     sync.Mutex
	nextID int64
	keys   map[int64]*models.ApiKey
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{nextID: 1, keys: make(map[int64]*models.ApiKey)}
}

func (r *fakeKeyRepo) GetActiveByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		if key.KeyHash == keyHash && key.IsActive {
			copied := *key
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeKeyRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []*models.ApiKey
	for _, key := range r.keys {
		if key.UserID == userID {
			copied := *key
			keys = append(keys, &copied)
		}
	}
	return keys, nil
}

func (r *fakeKeyRepo) CountActiveByUserID(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, key := range r.keys {
		if key.UserID == userID && key.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeKeyRepo) Create(ctx context.Context, key *models.ApiKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := *key
	stored.ID = id
	stored.IsActive = true
	stored.CreatedAt = time.Now()
	r.keys[id] = &stored
	return id, nil
}

func (r *fakeKeyRepo) RecordUsage(ctx context.Context, id int64, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.keys[id]; ok {
		key.TotalRequests++
		key.LastUsedAt = nullTime(usedAt)
	}
	return nil
}

func (r *fakeKeyRepo) Deactivate(ctx context.Context, id, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok || key.UserID != userID {
		return false, nil
	}
	key.IsActive = false
	return true, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, false, nil
	}
	copied := *user
	return &copied, true, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	return id, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		stored := *user
		r.users[user.ID] = &stored
	}
	return nil
}

func (r *fakeUserRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// stubAdapter counts calls and replays a fixed outcome.
type stubAdapter struct {
	mu      sync.Mutex
	calls   int
	last    platform.Content
	outcome platform.Outcome
}

func (a *stubAdapter) Publish(ctx context.Context, tokens *models.TokenBundle, content platform.Content) platform.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.last = content
	return a.outcome
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *stubAdapter) lastContent() platform.Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// stubScheduler records delayed dispatch requests instead of enqueueing.
type stubScheduler struct {
	mu        sync.Mutex
	scheduled []int64
}

func (s *stubScheduler) ScheduleDispatch(postID int64, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, postID)
	return nil
}

func (s *stubScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}
