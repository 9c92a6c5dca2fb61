package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
)

// Uploader pushes synthesized audio to the store's object storage and returns
// a shareable public URL.
type Uploader struct {
	uploadURL string
	publicURL string
	token     string
	client    *http.Client
}

func NewUploader(uploadURL, publicURL, token string, timeout time.Duration) *Uploader {
	return &Uploader{
		uploadURL: strings.TrimSuffix(uploadURL, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
		token:     token,
		client:    &http.Client{Timeout: timeout},
	}
}

func (u *Uploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	if u.uploadURL == "" {
		return "", apperrors.CollaboratorUnavailable("storage", fmt.Errorf("object storage not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.uploadURL+"/"+name, bytes.NewReader(data))
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("storage", err)
	}
	if u.token != "" {
		req.Header.Set("Authorization", "Bearer "+u.token)
	}
	req.Header.Set("Content-Type", "audio/mpeg")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", apperrors.CollaboratorUnavailable("storage", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apperrors.CollaboratorUnavailable("storage", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	base := u.publicURL
	if base == "" {
		base = u.uploadURL
	}
	return base + "/" + name, nil
}
