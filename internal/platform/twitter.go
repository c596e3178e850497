package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/v9cf/contentfactory/internal/models"
)

const twitterBaseURL = "https://api.twitter.com"

// TwitterAdapter posts tweets through the v2 API. Single call, bearer
// auth, post id comes back under data.id.
type TwitterAdapter struct {
	baseURL string
	client  *http.Client
}

func NewTwitterAdapter() *TwitterAdapter {
	return &TwitterAdapter{baseURL: twitterBaseURL, client: newHTTPClient()}
}

func (a *TwitterAdapter) Publish(ctx context.Context, tokens *models.TokenBundle, content Content) Outcome {
	payload, err := json.Marshal(map[string]string{"text": content.Text})
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return failure(ErrorCodeUpstream, fmt.Sprintf("unreadable twitter response: %v", err))
	}

	if result.Data.ID == "" {
		message := result.Detail
		if message == "" {
			message = fmt.Sprintf("twitter api error (status %d)", resp.StatusCode)
		}
		return failure(ErrorCodeUpstream, message)
	}

	return Outcome{
		Success:         true,
		PlatformPostID:  result.Data.ID,
		PlatformPostURL: fmt.Sprintf("https://twitter.com/i/status/%s", result.Data.ID),
	}
}
