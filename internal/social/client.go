package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
	"github.com/sahlastore/assistant-server-go/internal/model"
)

// Client resolves shared social-platform links to post details through the
// store's social API proxy. Fetching happens here, never at normalization
// time.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetPostDetails(ctx context.Context, postURL string) (*model.SocialPost, error) {
	if c.baseURL == "" {
		return nil, apperrors.CollaboratorUnavailable("social", fmt.Errorf("social API not configured"))
	}

	q := url.Values{"url": {postURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/posts?"+q.Encode(), nil)
	if err != nil {
		return nil, apperrors.CollaboratorUnavailable("social", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.CollaboratorUnavailable("social", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.CollaboratorUnavailable("social", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var post model.SocialPost
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, apperrors.CollaboratorUnavailable("social", err)
	}
	return &post, nil
}
