package render

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
)

// ElementKind identifies what a plan element draws. The order of
// kinds below is the fixed draw order both backends follow.
type ElementKind string

const (
	KindBackground    ElementKind = "background"
	KindBorder        ElementKind = "border"
	KindLogo          ElementKind = "logo"
	KindHeader        ElementKind = "header"
	KindTitle         ElementKind = "title"
	KindSubtitle      ElementKind = "subtitle"
	KindGivenTo       ElementKind = "given_to"
	KindName          ElementKind = "name"
	KindSeparator     ElementKind = "separator"
	KindParticipation ElementKind = "participation"
	KindSignature     ElementKind = "signature"
	KindCertNumber    ElementKind = "cert_number"
)

// Element is one drawable item of a LayoutPlan. Which fields are
// meaningful depends on Kind; renderers switch on Kind and only read
// the fields that kind defines.
type Element struct {
	Kind ElementKind

	// Text elements.
	Lines      []string
	Font       FontHandle
	FontSize   float64
	Color      RGB
	Position   Position
	LineHeight float64

	// Image elements (logo, signature image, background image).
	Image      image.Image
	ImageWidth float64 // canvas px; height follows source aspect ratio

	// Border / separator geometry.
	Thickness float64
	Inset     float64 // percent of canvas width
	WidthPct  float64

	// Certificate number extras.
	QR     image.Image // nil when generation failed or disabled
	QRSize float64     // canvas px
	QRGap  float64     // canvas px between number text and QR
}

// LayoutPlan is the fully resolved, placeholder-expanded,
// asset-fetched input both renderer backends consume. It is built
// once per generation and discarded afterwards; feeding both backends
// from one plan is what guarantees output parity.
type LayoutPlan struct {
	Canvas     Canvas
	Background RGB
	Elements   []Element
}

// TextContent returns the drawn text of every text-bearing element in
// draw order, one entry per element kind occurrence. Used by parity
// checks.
func (p *LayoutPlan) TextContent() []string {
	var out []string
	for _, e := range p.Elements {
		if len(e.Lines) > 0 {
			for _, l := range e.Lines {
				out = append(out, l)
			}
		}
	}
	return out
}

// Planner builds LayoutPlans. It owns the shared decision logic —
// merging, expansion, font resolution, asset fetching — so the
// backends are left with nothing but drawing calls.
type Planner struct {
	fonts  *FontResolver
	assets *AssetFetcher
	logger *zap.Logger
}

func NewPlanner(fonts *FontResolver, assets *AssetFetcher, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{fonts: fonts, assets: assets, logger: logger}
}

// Build resolves the config and assembles the element sequence in the
// fixed draw order. Configuration errors are fatal to the generation;
// asset and QR failures degrade per element.
func (p *Planner) Build(ctx context.Context, cfg *LayoutConfig, data DataRecord, verifyBaseURL string) (*LayoutPlan, error) {
	layout, err := Resolve(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve layout: %w", err)
	}

	bg, err := ParseHexColor(layout.Background.Color)
	if err != nil {
		return nil, fmt.Errorf("background color: %w", err)
	}

	urls := []string{layout.Background.ImageURL}
	for _, logo := range layout.Logos {
		urls = append(urls, logo.URL)
	}
	for _, sig := range layout.Signatures {
		urls = append(urls, sig.ImageURL)
	}
	images := p.assets.FetchAll(ctx, urls)

	plan := &LayoutPlan{
		Canvas:     Canvas{W: float64(layout.Width), H: float64(layout.Height)},
		Background: bg,
	}

	if img := images[layout.Background.ImageURL]; img != nil {
		plan.add(Element{Kind: KindBackground, Image: img})
	} else {
		// Missing background degrades to a solid fill of the
		// configured color; the element is still present so both
		// backends paint the same base.
		plan.add(Element{Kind: KindBackground})
	}

	if layout.Border.Show {
		c := mustColor(layout.Border.Color)
		plan.add(Element{
			Kind:      KindBorder,
			Color:     c,
			Thickness: layout.Border.Thickness,
			Inset:     layout.Border.Inset,
		})
	}

	for _, logo := range layout.Logos {
		img := images[logo.URL]
		if img == nil {
			continue // degraded: logo area left empty
		}
		plan.add(Element{
			Kind:       KindLogo,
			Image:      img,
			ImageWidth: logo.Width,
			Position:   logo.Position,
		})
	}

	if len(layout.Header.Lines) > 0 {
		plan.add(Element{
			Kind:       KindHeader,
			Lines:      layout.Header.Lines,
			Font:       p.fonts.Resolve(ctx, layout.Header.FontFamily, false),
			FontSize:   layout.Header.FontSize,
			Color:      mustColor(layout.Header.Color),
			Position:   layout.Header.Position,
			LineHeight: layout.Header.LineHeight,
		})
	}

	p.addText(ctx, plan, KindTitle, layout.Title)
	p.addText(ctx, plan, KindSubtitle, layout.Subtitle)
	p.addText(ctx, plan, KindGivenTo, layout.GivenTo)

	plan.add(Element{
		Kind:     KindName,
		Lines:    []string{data.ParticipantName},
		Font:     p.fonts.Resolve(ctx, layout.Name.FontFamily, layout.Name.Bold),
		FontSize: layout.Name.FontSize,
		Color:    mustColor(layout.Name.Color),
		Position: layout.Name.Position,
	})

	if layout.Separator.Show {
		plan.add(Element{
			Kind:      KindSeparator,
			Color:     mustColor(layout.Separator.Color),
			WidthPct:  layout.Separator.WidthPct,
			Thickness: layout.Separator.Thickness,
			Position:  Position{X: 50, Y: layout.Separator.Y},
		})
	}

	expanded := ExpandTemplate(layout.Participation.Template, layout.Participation.DateFormat, data)
	if lines := SplitLines(expanded); len(lines) > 0 {
		plan.add(Element{
			Kind:       KindParticipation,
			Lines:      lines,
			Font:       p.fonts.Resolve(ctx, layout.Participation.FontFamily, false),
			FontSize:   layout.Participation.FontSize,
			Color:      mustColor(layout.Participation.Color),
			Position:   layout.Participation.Position,
			LineHeight: layout.Participation.LineHeight,
		})
	}

	for _, sig := range layout.Signatures {
		lines := []string{sig.Name}
		if sig.Role != "" {
			lines = append(lines, sig.Role)
		}
		plan.add(Element{
			Kind:       KindSignature,
			Lines:      lines,
			Font:       p.fonts.Resolve(ctx, sig.FontFamily, false),
			FontSize:   sig.FontSize,
			Color:      mustColor(sig.Color),
			Position:   sig.Position,
			LineHeight: 1.4,
			Image:      images[sig.ImageURL],
			ImageWidth: sig.ImageWidth,
		})
	}

	if layout.CertID.Show && data.CertificateNumber != "" {
		e := Element{
			Kind:     KindCertNumber,
			Lines:    []string{data.CertificateNumber},
			Font:     p.fonts.Resolve(ctx, layout.CertID.FontFamily, false),
			FontSize: layout.CertID.FontSize,
			Color:    mustColor(layout.CertID.Color),
			Position: layout.CertID.Position,
		}
		if layout.QR.Show {
			e.QR = GenerateQR(verifyBaseURL, data.CertificateNumber, p.logger)
			e.QRSize = layout.QR.Size
			e.QRGap = layout.QR.Gap
		}
		plan.add(e)
	}

	return plan, nil
}

func (p *Planner) addText(ctx context.Context, plan *LayoutPlan, kind ElementKind, style TextStyle) {
	if style.Text == "" {
		return
	}
	plan.add(Element{
		Kind:     kind,
		Lines:    []string{style.Text},
		Font:     p.fonts.Resolve(ctx, style.FontFamily, style.Bold),
		FontSize: style.FontSize,
		Color:    mustColor(style.Color),
		Position: style.Position,
	})
}

func (p *LayoutPlan) add(e Element) {
	p.Elements = append(p.Elements, e)
}

// mustColor is used only on colors already validated by Resolve.
func mustColor(s string) RGB {
	c, err := ParseHexColor(s)
	if err != nil {
		return RGB{}
	}
	return c
}
