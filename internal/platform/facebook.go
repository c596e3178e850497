package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/v9cf/contentfactory/internal/models"
)

const facebookBaseURL = "https://graph.facebook.com/v18.0"

// FacebookAdapter posts to a page feed. Single call, token in the body
// per the Graph API convention.
type FacebookAdapter struct {
	baseURL string
	client  *http.Client
}

func NewFacebookAdapter() *FacebookAdapter {
	return &FacebookAdapter{baseURL: facebookBaseURL, client: newHTTPClient()}
}

func (a *FacebookAdapter) Publish(ctx context.Context, tokens *models.TokenBundle, content Content) Outcome {
	if tokens.PageID == "" {
		return failure(ErrorCodeDomain, "missing Facebook page id in credentials")
	}

	payload, err := json.Marshal(map[string]string{
		"message":      content.Text,
		"access_token": tokens.AccessToken,
	})
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}

	url := fmt.Sprintf("%s/%s/feed", a.baseURL, tokens.PageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	var result struct {
		ID    string     `json:"id"`
		Error *metaError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return failure(ErrorCodeUpstream, fmt.Sprintf("unreadable facebook response: %v", err))
	}

	if result.ID == "" {
		return failure(ErrorCodeUpstream, metaErrorMessage(result.Error, "Facebook API error"))
	}

	return Outcome{
		Success:         true,
		PlatformPostID:  result.ID,
		PlatformPostURL: fmt.Sprintf("https://facebook.com/%s", result.ID),
	}
}
