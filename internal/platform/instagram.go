package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/v9cf/contentfactory/internal/models"
)

const instagramBaseURL = "https://graph.facebook.com/v18.0"

// InstagramAdapter publishes through the Meta Graph API. Instagram does
// not accept text-only posts, and publishing is a two-step protocol: a
// media container is created first, then published by creation id.
type InstagramAdapter struct {
	baseURL string
	client  *http.Client
}

func NewInstagramAdapter() *InstagramAdapter {
	return &InstagramAdapter{baseURL: instagramBaseURL, client: newHTTPClient()}
}

func (a *InstagramAdapter) Publish(ctx context.Context, tokens *models.TokenBundle, content Content) Outcome {
	if len(content.MediaURLs) == 0 {
		return failure(ErrorCodeDomain, "Instagram requires media")
	}
	if tokens.InstagramAccountID == "" {
		return failure(ErrorCodeDomain, "missing Instagram account id in credentials")
	}

	containerID, outcome := a.createContainer(ctx, tokens, content)
	if containerID == "" {
		return outcome
	}

	return a.publishContainer(ctx, tokens, containerID)
}

func (a *InstagramAdapter) createContainer(ctx context.Context, tokens *models.TokenBundle, content Content) (string, Outcome) {
	body := map[string]string{
		"image_url":    content.MediaURLs[0],
		"caption":      content.Text,
		"access_token": tokens.AccessToken,
	}

	var result struct {
		ID    string     `json:"id"`
		Error *metaError `json:"error"`
	}
	if outcome, ok := a.postJSON(ctx, fmt.Sprintf("%s/%s/media", a.baseURL, tokens.InstagramAccountID), body, &result); !ok {
		return "", outcome
	}

	if result.ID == "" {
		return "", failure(ErrorCodeUpstream, metaErrorMessage(result.Error, "failed to create media container"))
	}
	return result.ID, Outcome{}
}

func (a *InstagramAdapter) publishContainer(ctx context.Context, tokens *models.TokenBundle, containerID string) Outcome {
	body := map[string]string{
		"creation_id":  containerID,
		"access_token": tokens.AccessToken,
	}

	var result struct {
		ID    string     `json:"id"`
		Error *metaError `json:"error"`
	}
	if outcome, ok := a.postJSON(ctx, fmt.Sprintf("%s/%s/media_publish", a.baseURL, tokens.InstagramAccountID), body, &result); !ok {
		return outcome
	}

	if result.ID == "" {
		return failure(ErrorCodeUpstream, metaErrorMessage(result.Error, "failed to publish"))
	}

	return Outcome{
		Success:         true,
		PlatformPostID:  result.ID,
		PlatformPostURL: fmt.Sprintf("https://instagram.com/p/%s", result.ID),
	}
}

func (a *InstagramAdapter) postJSON(ctx context.Context, url string, body map[string]string, result interface{}) (Outcome, bool) {
	payload, err := json.Marshal(body)
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error()), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error()), false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err), false
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return failure(ErrorCodeUpstream, fmt.Sprintf("unreadable instagram response: %v", err)), false
	}
	return Outcome{}, true
}

type metaError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func metaErrorMessage(e *metaError, fallback string) string {
	if e != nil && e.Message != "" {
		return e.Message
	}
	return fallback
}
