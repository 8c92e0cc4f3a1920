package tiles

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	FetchTimeout     = 10 * time.Second
	DefaultUserAgent = "geovideo/1.0 (+https://github.com/olablt/geovideo)"
)

// Fetcher retrieves the raw bytes behind a tile URL.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: FetchTimeout},
		userAgent: userAgent,
	}
}

// Fetch performs a single GET. Any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(url string) ([]byte, error) {
	slog.Debug("requesting tile", "url", url)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/png,image/jpeg,image/*;q=0.8,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
