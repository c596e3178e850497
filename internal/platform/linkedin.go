package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/v9cf/contentfactory/internal/models"
)

const linkedinBaseURL = "https://api.linkedin.com"

// LinkedInAdapter posts UGC shares. The Restli protocol header is
// mandatory; the author is the member's person URN from the credential
// bundle.
type LinkedInAdapter struct {
	baseURL string
	client  *http.Client
}

func NewLinkedInAdapter() *LinkedInAdapter {
	return &LinkedInAdapter{baseURL: linkedinBaseURL, client: newHTTPClient()}
}

func (a *LinkedInAdapter) Publish(ctx context.Context, tokens *models.TokenBundle, content Content) Outcome {
	if tokens.PersonURN == "" {
		return failure(ErrorCodeDomain, "missing LinkedIn person URN in credentials")
	}

	body := map[string]interface{}{
		"author":         tokens.PersonURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": content.Text,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return failure(ErrorCodeUpstream, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	var result struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return failure(ErrorCodeUpstream, fmt.Sprintf("unreadable linkedin response: %v", err))
	}

	if result.ID == "" {
		message := result.Message
		if message == "" {
			message = "LinkedIn API error"
		}
		return failure(ErrorCodeUpstream, message)
	}

	return Outcome{
		Success:         true,
		PlatformPostID:  result.ID,
		PlatformPostURL: fmt.Sprintf("https://linkedin.com/feed/update/%s", result.ID),
	}
}
