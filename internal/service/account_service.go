package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/transfer"
	"github.com/v9cf/contentfactory/pkg/crypto"
)

type AccountService interface {
	Connect(ctx context.Context, userID int64, connection *transfer.AccountConnection) (*transfer.AccountInfo, error)
	List(ctx context.Context, userID int64) ([]*transfer.AccountInfo, error)
	// Resolve picks the account a publish intent targets: the explicit
	// account id when given, otherwise the oldest active account on the
	// platform.
	Resolve(ctx context.Context, userID, accountID int64, platform models.Platform) (*models.ConnectedAccount, error)
	// DecryptTokens opens the account's credential bundle. A failed
	// integrity check marks the account status error and returns nil
	// tokens; corrupted credentials must never reach an adapter.
	DecryptTokens(ctx context.Context, account *models.ConnectedAccount) (*models.TokenBundle, error)
	UpdateSettings(ctx context.Context, userID int64, update *transfer.AccountSettingsUpdate) error
	MarkUsed(ctx context.Context, accountID int64) error
	RecordFailure(ctx context.Context, accountID int64, message, code string) error
	Disconnect(ctx context.Context, userID, accountID int64) error
	ExpireDueTokens(ctx context.Context) (int64, error)
}

type accountService struct {
	a     repository.AccountRepository
	vault *crypto.Vault
}

func NewAccountService(a repository.AccountRepository, vault *crypto.Vault) AccountService {
	return &accountService{
		a:     a,
		vault: vault,
	}
}

func (s *accountService) Connect(ctx context.Context, userID int64, connection *transfer.AccountConnection) (*transfer.AccountInfo, error) {
	platform := models.Platform(connection.Platform)
	if !models.KnownPlatform(platform) {
		return nil, ErrValidation
	}
	if connection.Credentials.AccessToken == "" {
		return nil, ErrValidation
	}

	bundle := models.TokenBundle{
		AccessToken:        connection.Credentials.AccessToken,
		AccessTokenSecret:  connection.Credentials.AccessTokenSecret,
		RefreshToken:       connection.Credentials.RefreshToken,
		ExpiresAt:          connection.Credentials.ExpiresAt,
		AccountID:          connection.Credentials.AccountID,
		Username:           connection.Credentials.Username,
		InstagramAccountID: connection.Credentials.InstagramAccountID,
		PageID:             connection.Credentials.PageID,
		PersonURN:          connection.Credentials.PersonURN,
	}

	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return nil, err
	}
	sealed, err := s.vault.Encrypt(plaintext)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	account := &models.ConnectedAccount{
		UserID:            userID,
		Platform:          platform,
		PlatformAccountID: connection.Credentials.AccountID,
		PlatformUsername:  connection.Credentials.Username,
		EncryptedTokens:   *sealed,
		Status:            models.AccountStatusActive,
		Settings: models.AccountSettings{
			DefaultHashtags: []string{},
		},
	}
	if connection.ProfileInfo != nil {
		if connection.ProfileInfo.AccountID != "" {
			account.PlatformAccountID = connection.ProfileInfo.AccountID
		}
		if connection.ProfileInfo.Username != "" {
			account.PlatformUsername = connection.ProfileInfo.Username
		}
		account.ProfilePicture = connection.ProfileInfo.ProfilePicture
	}
	if connection.Credentials.ExpiresAt != nil {
		account.TokenExpiresAt = sql.NullTime{Time: *connection.Credentials.ExpiresAt, Valid: true}
	}

	taken, err := s.a.Exists(ctx, userID, platform, account.PlatformAccountID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateAccount
	}

	// Two concurrent connects can both pass the existence check; the
	// unique constraint settles the race.
	id, err := s.a.Create(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	account.ID = id
	account.CreatedAt = time.Now()

	return accountInfo(account), nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*transfer.AccountInfo, error) {
	accounts, err := s.a.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*transfer.AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		infos = append(infos, accountInfo(account))
	}
	return infos, nil
}

func (s *accountService) Resolve(ctx context.Context, userID, accountID int64, platform models.Platform) (*models.ConnectedAccount, error) {
	if accountID > 0 {
		account, err := s.a.GetByID(ctx, accountID, userID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}
		if account.Platform != platform || account.Status != models.AccountStatusActive {
			return nil, ErrAccountNotFound
		}
		return account, nil
	}

	account, err := s.a.FirstActiveByPlatform(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNoActiveAccount
	}
	return account, nil
}

func (s *accountService) DecryptTokens(ctx context.Context, account *models.ConnectedAccount) (*models.TokenBundle, error) {
	plaintext, err := s.vault.Decrypt(&account.EncryptedTokens)
	if err != nil {
		slog.Info(err.Error())
		if updateErr := s.a.UpdateStatus(ctx, account.ID, models.AccountStatusError); updateErr != nil {
			slog.Info(updateErr.Error())
		}
		if recordErr := s.a.RecordError(ctx, account.ID, err.Error(), "credential_integrity", time.Now()); recordErr != nil {
			slog.Info(recordErr.Error())
		}
		return nil, err
	}

	var bundle models.TokenBundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &bundle, nil
}

func (s *accountService) UpdateSettings(ctx context.Context, userID int64, update *transfer.AccountSettingsUpdate) error {
	updated, err := s.a.UpdateSettings(ctx, update.AccountID, userID, update.AutoPost, update.DefaultHashtags)
	if err != nil {
		return err
	}
	if !updated {
		return ErrAccountNotFound
	}
	return nil
}

func (s *accountService) MarkUsed(ctx context.Context, accountID int64) error {
	return s.a.Touch(ctx, accountID, time.Now())
}

func (s *accountService) RecordFailure(ctx context.Context, accountID int64, message, code string) error {
	return s.a.RecordError(ctx, accountID, message, code, time.Now())
}

func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) error {
	removed, err := s.a.Remove(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrAccountNotFound
	}
	return nil
}

func (s *accountService) ExpireDueTokens(ctx context.Context) (int64, error) {
	return s.a.ExpireDue(ctx, time.Now())
}

func accountInfo(account *models.ConnectedAccount) *transfer.AccountInfo {
	info := &transfer.AccountInfo{
		ID:               account.ID,
		Platform:         string(account.Platform),
		PlatformUsername: account.PlatformUsername,
		ProfilePicture:   account.ProfilePicture,
		Status:           account.Status,
		AutoPost:         account.Settings.AutoPost,
		DefaultHashtags:  account.Settings.DefaultHashtags,
		CreatedAt:        account.CreatedAt,
	}
	if info.DefaultHashtags == nil {
		info.DefaultHashtags = []string{}
	}
	if account.LastUsedAt.Valid {
		info.LastUsedAt = &account.LastUsedAt.Time
	}
	return info
}
