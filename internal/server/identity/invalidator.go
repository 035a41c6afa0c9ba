package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NoopInvalidator backs tests and deployments without a memory service.
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateUser(ctx context.Context, userID string) error { return nil }

// HTTPInvalidator posts cache evictions to the external memory service.
type HTTPInvalidator struct {
	endpoint string
	client   *http.Client
}

func NewHTTPInvalidator(endpoint string) *HTTPInvalidator {
	return &HTTPInvalidator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (i *HTTPInvalidator) InvalidateUser(ctx context.Context, userID string) error {
	u := fmt.Sprintf("%s?user=%s", i.endpoint, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("memory service returned %s", resp.Status)
	}

	return nil
}
