package render

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Output carries the two renderings of one certificate. Both are
// always produced together from the same plan.
type Output struct {
	PDF []byte
	PNG []byte
}

// Engine builds a LayoutPlan for a certificate and renders it through
// both backends. One engine is shared across requests; font and asset
// caches live for the process.
type Engine struct {
	planner *Planner
	pdf     *PDFRenderer
	png     *PNGRenderer
	baseURL string
}

// NewEngine wires the shared planner and both backends. verifyBaseURL
// is the public host the QR verification links point at.
func NewEngine(client *http.Client, verifyBaseURL string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	fonts := NewFontResolver(client, logger)
	assets := NewAssetFetcher(client, logger)
	return &Engine{
		planner: NewPlanner(fonts, assets, logger),
		pdf:     NewPDFRenderer(),
		png:     NewPNGRenderer(),
		baseURL: verifyBaseURL,
	}
}

// Render produces the PDF and PNG for one certificate. The plan is
// built once and handed to both backends, which run concurrently; a
// failure in either fails the generation as a whole.
func (e *Engine) Render(ctx context.Context, cfg *LayoutConfig, data DataRecord) (*Output, error) {
	plan, err := e.planner.Build(ctx, cfg, data, e.baseURL)
	if err != nil {
		return nil, err
	}

	var out Output
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := e.pdf.Render(plan)
		if err == nil {
			out.PDF = b
		}
		return err
	})
	g.Go(func() error {
		b, err := e.png.Render(plan)
		if err == nil {
			out.PNG = b
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
