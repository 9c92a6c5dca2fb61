package storefront

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

// Client talks to the storefront's REST API for catalog and order lookups.
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

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.CollaboratorUnavailable("storefront", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.CollaboratorUnavailable("storefront", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NotFound("resource")
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.CollaboratorUnavailable("storefront", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperrors.CollaboratorUnavailable("storefront", err)
	}
	return nil
}

// FindProduct searches the catalog. An empty result slice is a valid answer,
// not an error.
func (c *Client) FindProduct(ctx context.Context, query string) ([]model.Product, error) {
	var result struct {
		Products []model.Product `json:"products"`
	}
	q := url.Values{"search": {query}}
	if err := c.get(ctx, "/products", q, &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}

// GetOrder fetches the status of one order by its short numeric identifier.
func (c *Client) GetOrder(ctx context.Context, id string) (*model.OrderStatus, error) {
	var order model.OrderStatus
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
