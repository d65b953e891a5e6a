package video

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPLoader warms a media URL by fetching it once, priming the CDN and the
// OS cache. Real decoding happens in the playback collaborator.
type HTTPLoader struct {
	Client *http.Client
}

func (l *HTTPLoader) Fetch(ctx context.Context, url string) error {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build preload request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("preload fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preload fetch returned status %d", resp.StatusCode)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

var _ Loader = (*HTTPLoader)(nil)
