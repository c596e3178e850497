package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/v9cf/contentfactory/internal/models"
)

func TestTwitterAdapterSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1234567890"}}`))
	}))
	defer server.Close()

	adapter := NewTwitterAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(), &models.TokenBundle{AccessToken: "tok"}, Content{Text: "hello world"})

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["text"] != "hello world" {
		t.Errorf("expected tweet text %q, got %q", "hello world", gotBody["text"])
	}
	if outcome.PlatformPostID != "1234567890" {
		t.Errorf("unexpected post id %q", outcome.PlatformPostID)
	}
	if outcome.PlatformPostURL != "https://twitter.com/i/status/1234567890" {
		t.Errorf("unexpected post url %q", outcome.PlatformPostURL)
	}
}

func TestTwitterAdapterAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"You are not permitted to perform this action"}`))
	}))
	defer server.Close()

	adapter := NewTwitterAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(), &models.TokenBundle{AccessToken: "tok"}, Content{Text: "x"})

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Error != "You are not permitted to perform this action" {
		t.Errorf("expected platform error text, got %q", outcome.Error)
	}
}

func TestTwitterAdapterNetworkErrorIsSoft(t *testing.T) {
	adapter := NewTwitterAdapter()
	adapter.baseURL = "http://127.0.0.1:1" // nothing listens here

	outcome := adapter.Publish(context.Background(), &models.TokenBundle{AccessToken: "tok"}, Content{Text: "x"})

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Error == "" {
		t.Error("network failure must still carry an error message")
	}
}

func TestInstagramAdapterRequiresMedia(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	adapter := NewInstagramAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(),
		&models.TokenBundle{AccessToken: "tok", InstagramAccountID: "ig1"},
		Content{Text: "no media"})

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Error != "Instagram requires media" {
		t.Errorf("expected media-required domain error, got %q", outcome.Error)
	}
	if outcome.ErrorCode != ErrorCodeDomain {
		t.Errorf("expected domain error code, got %q", outcome.ErrorCode)
	}
	if calls != 0 {
		t.Errorf("text-only post must not reach the network, got %d calls", calls)
	}
}

func TestInstagramAdapterTwoStepPublish(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/ig1/media":
			if body["image_url"] != "https://cdn.example.com/a.jpg" {
				t.Errorf("unexpected image_url %q", body["image_url"])
			}
			w.Write([]byte(`{"id":"container-1"}`))
		case "/ig1/media_publish":
			if body["creation_id"] != "container-1" {
				t.Errorf("expected creation_id container-1, got %q", body["creation_id"])
			}
			w.Write([]byte(`{"id":"igpost-9"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter := NewInstagramAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(),
		&models.TokenBundle{AccessToken: "tok", InstagramAccountID: "ig1"},
		Content{Text: "caption", MediaURLs: []string{"https://cdn.example.com/a.jpg"}})

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if len(paths) != 2 {
		t.Fatalf("expected container create then publish, got calls %v", paths)
	}
	if outcome.PlatformPostURL != "https://instagram.com/p/igpost-9" {
		t.Errorf("unexpected post url %q", outcome.PlatformPostURL)
	}
}

func TestInstagramAdapterContainerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid image URL","type":"OAuthException","code":100}}`))
	}))
	defer server.Close()

	adapter := NewInstagramAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(),
		&models.TokenBundle{AccessToken: "tok", InstagramAccountID: "ig1"},
		Content{Text: "caption", MediaURLs: []string{"bad"}})

	if outcome.Success {
		t.Fatal("expected failure outcome")
	}
	if outcome.Error != "Invalid image URL" {
		t.Errorf("expected meta error message, got %q", outcome.Error)
	}
}

func TestFacebookAdapterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page-7/feed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["access_token"] != "tok" {
			t.Errorf("token must travel in the body, got %q", body["access_token"])
		}
		w.Write([]byte(`{"id":"page-7_123"}`))
	}))
	defer server.Close()

	adapter := NewFacebookAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(),
		&models.TokenBundle{AccessToken: "tok", PageID: "page-7"},
		Content{Text: "hello"})

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.PlatformPostURL != "https://facebook.com/page-7_123" {
		t.Errorf("unexpected post url %q", outcome.PlatformPostURL)
	}
}

func TestLinkedInAdapterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/ugcPosts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Restli-Protocol-Version") != "2.0.0" {
			t.Error("missing Restli protocol header")
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["author"] != "urn:li:person:abc" {
			t.Errorf("unexpected author %v", body["author"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"urn:li:share:42"}`))
	}))
	defer server.Close()

	adapter := NewLinkedInAdapter()
	adapter.baseURL = server.URL

	outcome := adapter.Publish(context.Background(),
		&models.TokenBundle{AccessToken: "tok", PersonURN: "urn:li:person:abc"},
		Content{Text: "hello"})

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.PlatformPostURL != "https://linkedin.com/feed/update/urn:li:share:42" {
		t.Errorf("unexpected post url %q", outcome.PlatformPostURL)
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()

	for _, p := range []models.Platform{models.PlatformTwitter, models.PlatformInstagram, models.PlatformFacebook, models.PlatformLinkedIn} {
		if _, ok := registry.Lookup(p); !ok {
			t.Errorf("expected adapter for %s", p)
		}
	}
	if _, ok := registry.Lookup(models.PlatformTiktok); ok {
		t.Error("tiktok must not have a publishing adapter")
	}
}
