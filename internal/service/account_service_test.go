package service

import (
	"context"
	"testing"
	"time"

	"github.com/v9cf/contentfactory/internal/models"
	"github.com/v9cf/contentfactory/internal/transfer"
	"github.com/v9cf/contentfactory/pkg/crypto"
)

func newAccountFixture(t *testing.T) (AccountService, *fakeAccountRepo) {
	t.Helper()
	vault, err := crypto.NewVault(testMasterKey)
	if err != nil {
		t.Fatal(err)
	}
	repo := newFakeAccountRepo()
	return NewAccountService(repo, vault), repo
}

func twitterConnection(accountID string) *transfer.AccountConnection {
	return &transfer.AccountConnection{
		Platform: "twitter",
		Credentials: transfer.ConnectionTokens{
			AccessToken: "tok",
			AccountID:   accountID,
			Username:    "tester",
		},
	}
}

func TestConnectRejectsDuplicate(t *testing.T) {
	svc, _ := newAccountFixture(t)

	if _, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1")); err != ErrDuplicateAccount {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	// Same platform account under a different user is fine.
	if _, err := svc.Connect(context.Background(), 2, twitterConnection("acc-1")); err != nil {
		t.Fatal(err)
	}
}

func TestConnectValidation(t *testing.T) {
	svc, _ := newAccountFixture(t)

	_, err := svc.Connect(context.Background(), 1, &transfer.AccountConnection{
		Platform:    "friendster",
		Credentials: transfer.ConnectionTokens{AccessToken: "tok"},
	})
	if err != ErrValidation {
		t.Fatalf("unknown platform: expected validation error, got %v", err)
	}

	_, err = svc.Connect(context.Background(), 1, &transfer.AccountConnection{Platform: "twitter"})
	if err != ErrValidation {
		t.Fatalf("missing access token: expected validation error, got %v", err)
	}
}

func TestUpdateSettingsPartial(t *testing.T) {
	svc, repo := newAccountFixture(t)

	info, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}

	autoPost := true
	if err := svc.UpdateSettings(context.Background(), 1, &transfer.AccountSettingsUpdate{
		AccountID: info.ID,
		AutoPost:  &autoPost,
	}); err != nil {
		t.Fatal(err)
	}

	hashtags := []string{"go", "release"}
	if err := svc.UpdateSettings(context.Background(), 1, &transfer.AccountSettingsUpdate{
		AccountID:       info.ID,
		DefaultHashtags: &hashtags,
	}); err != nil {
		t.Fatal(err)
	}

	account, _ := repo.GetByID(context.Background(), info.ID, 1)
	if !account.Settings.AutoPost {
		t.Error("auto_post update lost")
	}
	if len(account.Settings.DefaultHashtags) != 2 {
		t.Errorf("unexpected default hashtags %v", account.Settings.DefaultHashtags)
	}
}

func TestUpdateSettingsWrongUser(t *testing.T) {
	svc, _ := newAccountFixture(t)

	info, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}

	autoPost := true
	err = svc.UpdateSettings(context.Background(), 2, &transfer.AccountSettingsUpdate{
		AccountID: info.ID,
		AutoPost:  &autoPost,
	})
	if err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDisconnectRemovesAccount(t *testing.T) {
	svc, _ := newAccountFixture(t)

	info, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Disconnect(context.Background(), 1, info.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Disconnect(context.Background(), 1, info.ID); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound on second disconnect, got %v", err)
	}
}

func TestExpireDueTokens(t *testing.T) {
	svc, repo := newAccountFixture(t)

	conn := twitterConnection("acc-1")
	past := time.Now().Add(-time.Hour)
	conn.Credentials.ExpiresAt = &past
	info, err := svc.Connect(context.Background(), 1, conn)
	if err != nil {
		t.Fatal(err)
	}

	fresh := twitterConnection("acc-2")
	future := time.Now().Add(time.Hour)
	fresh.Credentials.ExpiresAt = &future
	if _, err := svc.Connect(context.Background(), 1, fresh); err != nil {
		t.Fatal(err)
	}

	expired, err := svc.ExpireDueTokens(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if expired != 1 {
		t.Fatalf("expected one expired account, got %d", expired)
	}

	account, _ := repo.GetByID(context.Background(), info.ID, 1)
	if account.Status != models.AccountStatusExpired {
		t.Errorf("expected expired status, got %s", account.Status)
	}
}

func TestResolvePrefersExplicitAccount(t *testing.T) {
	svc, _ := newAccountFixture(t)

	first, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Connect(context.Background(), 1, twitterConnection("acc-2"))
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := svc.Resolve(context.Background(), 1, second.ID, models.PlatformTwitter)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.ID != second.ID {
		t.Errorf("expected explicit account %d, got %d", second.ID, resolved.ID)
	}

	// Without an explicit id the oldest active account wins.
	resolved, err = svc.Resolve(context.Background(), 1, 0, models.PlatformTwitter)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.ID != first.ID {
		t.Errorf("expected oldest account %d, got %d", first.ID, resolved.ID)
	}
}

func TestResolvePlatformMismatch(t *testing.T) {
	svc, _ := newAccountFixture(t)

	info, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}

	// A mismatched platform reads the same as a missing account; the
	// error must not confirm the id exists.
	if _, err := svc.Resolve(context.Background(), 1, info.ID, models.PlatformLinkedIn); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound on platform mismatch, got %v", err)
	}
}

func TestResolveRejectsNonActiveExplicitAccount(t *testing.T) {
	svc, repo := newAccountFixture(t)

	info, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1"))
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []string{
		models.AccountStatusExpired,
		models.AccountStatusRevoked,
		models.AccountStatusError,
	} {
		if err := repo.UpdateStatus(context.Background(), info.ID, status); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Resolve(context.Background(), 1, info.ID, models.PlatformTwitter); err != ErrAccountNotFound {
			t.Fatalf("status %s: expected ErrAccountNotFound, got %v", status, err)
		}
	}

	if err := repo.UpdateStatus(context.Background(), info.ID, models.AccountStatusActive); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resolve(context.Background(), 1, info.ID, models.PlatformTwitter); err != nil {
		t.Fatalf("active account should resolve, got %v", err)
	}
}

func TestListHidesCredentials(t *testing.T) {
	svc, _ := newAccountFixture(t)

	if _, err := svc.Connect(context.Background(), 1, twitterConnection("acc-1")); err != nil {
		t.Fatal(err)
	}

	infos, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one account, got %d", len(infos))
	}
	if infos[0].PlatformUsername != "tester" || infos[0].Status != models.AccountStatusActive {
		t.Errorf("unexpected account info %+v", infos[0])
	}
}
