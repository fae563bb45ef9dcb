package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FontClass buckets a requested family into one of the universally
// available substitution classes. Both renderer backends map a class
// to their own concrete face, so classification must happen exactly
// once, here, for parity.
type FontClass string

const (
	ClassSansSerif FontClass = "sans-serif"
	ClassSerif     FontClass = "serif"
	ClassMonospace FontClass = "monospace"
)

// FontHandle is the shared outcome of font resolution. When TTF is
// non-nil the exact decorative font was fetched and both backends
// embed those bytes; otherwise each backend substitutes its own face
// for Class, honoring Bold.
type FontHandle struct {
	Family string
	Class  FontClass
	Bold   bool
	TTF    []byte
}

// decorativeFonts maps known script/display families to an ordered
// list of candidate TTF sources. The first candidate that downloads
// and is non-empty wins; total failure falls through to Class
// substitution.
var decorativeFonts = map[string][]string{
	"great vibes": {
		"https://raw.githubusercontent.com/google/fonts/main/ofl/greatvibes/GreatVibes-Regular.ttf",
		"https://github.com/google/fonts/raw/main/ofl/greatvibes/GreatVibes-Regular.ttf",
	},
	"dancing script": {
		"https://raw.githubusercontent.com/google/fonts/main/ofl/dancingscript/DancingScript%5Bwght%5D.ttf",
	},
	"pacifico": {
		"https://raw.githubusercontent.com/google/fonts/main/ofl/pacifico/Pacifico-Regular.ttf",
	},
	"sacramento": {
		"https://raw.githubusercontent.com/google/fonts/main/ofl/sacramento/Sacramento-Regular.ttf",
	},
}

// ClassifyFamily applies the shared substring heuristics. Order
// matters: "sans-serif" must land in the sans bucket, so the sans
// check precedes the serif one.
func ClassifyFamily(family string) FontClass {
	f := strings.ToLower(strings.TrimSpace(family))
	switch {
	case strings.Contains(f, "mono"),
		strings.Contains(f, "courier"),
		strings.Contains(f, "consolas"):
		return ClassMonospace
	case strings.Contains(f, "sans"):
		return ClassSansSerif
	case strings.Contains(f, "serif"),
		strings.Contains(f, "times"),
		strings.Contains(f, "georgia"),
		strings.Contains(f, "garamond"),
		strings.Contains(f, "palatino"),
		strings.Contains(f, "book"):
		return ClassSerif
	default:
		return ClassSansSerif
	}
}

// FontResolver resolves requested families to FontHandles, caching
// fetched decorative fonts (and fetch failures) per process.
type FontResolver struct {
	client *http.Client
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]byte
	tried map[string]bool
}

func NewFontResolver(client *http.Client, logger *zap.Logger) *FontResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FontResolver{
		client: client,
		logger: logger,
		cache:  make(map[string][]byte),
		tried:  make(map[string]bool),
	}
}

// Resolve maps a requested family to a FontHandle. Decorative
// families are fetched from their candidate list; any failure falls
// back to class substitution and is never fatal.
func (r *FontResolver) Resolve(ctx context.Context, family string, bold bool) FontHandle {
	h := FontHandle{
		Family: family,
		Class:  ClassifyFamily(family),
		Bold:   bold,
	}
	key := strings.ToLower(strings.TrimSpace(family))
	urls, decorative := decorativeFonts[key]
	if !decorative {
		return h
	}
	h.TTF = r.fetchCached(ctx, key, urls)
	return h
}

func (r *FontResolver) fetchCached(ctx context.Context, key string, urls []string) []byte {
	r.mu.Lock()
	if r.tried[key] {
		ttf := r.cache[key]
		r.mu.Unlock()
		return ttf
	}
	r.mu.Unlock()

	var ttf []byte
	for _, url := range urls {
		data, err := r.download(ctx, url)
		if err != nil {
			r.logger.Warn("font candidate failed",
				zap.String("family", key),
				zap.String("url", url),
				zap.Error(err))
			continue
		}
		ttf = data
		break
	}
	if ttf == nil {
		r.logger.Warn("font unavailable, substituting by class", zap.String("family", key))
	}

	r.mu.Lock()
	r.tried[key] = true
	r.cache[key] = ttf
	r.mu.Unlock()
	return ttf
}

func (r *FontResolver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty font file")
	}
	return data, nil
}
