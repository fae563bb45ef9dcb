package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AssetFetcher resolves remote image URLs into decoded rasters.
// Fetching is strictly best-effort: a network or decode failure yields
// nil and the renderers simply omit the element. Rendering must never
// abort because a logo host is down.
type AssetFetcher struct {
	client *http.Client
	logger *zap.Logger
}

func NewAssetFetcher(client *http.Client, logger *zap.Logger) *AssetFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetFetcher{client: client, logger: logger}
}

// Fetch downloads and decodes one image. It returns nil on any
// failure; the nil is the caller's signal to degrade gracefully.
func (f *AssetFetcher) Fetch(ctx context.Context, url string) image.Image {
	if url == "" {
		return nil
	}
	img, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Warn("asset unavailable, omitting", zap.String("url", url), zap.Error(err))
		return nil
	}
	return img
}

// FetchAll resolves every URL concurrently and returns results keyed
// by URL. A slow or failed fetch never blocks or fails the others.
func (f *AssetFetcher) FetchAll(ctx context.Context, urls []string) map[string]image.Image {
	results := make(map[string]image.Image, len(urls))
	seen := make(map[string]bool, len(urls))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, url := range urls {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			img := f.Fetch(ctx, url)
			mu.Lock()
			results[url] = img
			mu.Unlock()
		}(url)
	}
	wg.Wait()
	return results
}

func (f *AssetFetcher) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
