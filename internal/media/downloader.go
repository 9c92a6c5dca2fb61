package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
)

// Downloader fetches media referenced by inbound events. Callers own any
// temporary storage of the returned bytes.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	return &Downloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.MediaAcquisitionFailed(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.MediaAcquisitionFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.MediaAcquisitionFailed(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, apperrors.MediaAcquisitionFailed(err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, apperrors.MediaAcquisitionFailed(fmt.Errorf("media exceeds %d bytes", d.maxBytes))
	}

	return data, nil
}
