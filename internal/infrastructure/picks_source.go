package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPPicksSource fetches curated pick lists from <base>/<name>.json
type HTTPPicksSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPicksSource creates a new picks source
func NewHTTPPicksSource(baseURL string, timeout time.Duration) *HTTPPicksSource {
	return &HTTPPicksSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchPick returns the raw JSON of a pick. Only HTTP 200 counts as found.
func (s *HTTPPicksSource) FetchPick(ctx context.Context, name string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s.json", s.baseURL, name), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch pick %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read pick %s: %w", name, err)
	}
	return body, true, nil
}
