package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a point expressed as percentages (0-100) of the canvas
// width and height, origin top-left, Y growing downward. Every element
// in a layout is positioned this way so the same config renders
// correctly at any resolution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is a fully resolved certificate template. All fields carry
// concrete values; it is produced by Resolve and read-only afterwards.
type Layout struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Background    BackgroundStyle    `json:"background"`
	Border        BorderStyle        `json:"border"`
	Header        HeaderStyle        `json:"header"`
	Title         TextStyle          `json:"title"`
	Subtitle      TextStyle          `json:"subtitle"`
	GivenTo       TextStyle          `json:"given_to"`
	Name          NameStyle          `json:"name"`
	Separator     SeparatorStyle     `json:"separator"`
	Participation ParticipationStyle `json:"participation"`
	Logos         []LogoStyle        `json:"logos"`
	Signatures    []SignatureStyle   `json:"signatures"`
	CertID        CertIDStyle        `json:"cert_id"`
	QR            QRStyle            `json:"qr"`
}

type BackgroundStyle struct {
	Color    string `json:"color"`
	ImageURL string `json:"image_url"`
}

type BorderStyle struct {
	Show      bool    `json:"show"`
	Color     string  `json:"color"`
	Thickness float64 `json:"thickness"` // canvas px
	Inset     float64 `json:"inset"`     // percent of canvas width
}

type HeaderStyle struct {
	Lines      []string `json:"lines"`
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Color      string   `json:"color"`
	Position   Position `json:"position"`
	LineHeight float64  `json:"line_height"`
}

type TextStyle struct {
	Text       string   `json:"text"`
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Bold       bool     `json:"bold"`
	Color      string   `json:"color"`
	Position   Position `json:"position"`
}

type NameStyle struct {
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Bold       bool     `json:"bold"`
	Color      string   `json:"color"`
	Position   Position `json:"position"`
}

type SeparatorStyle struct {
	Show      bool    `json:"show"`
	WidthPct  float64 `json:"width_pct"`
	Thickness float64 `json:"thickness"` // canvas px
	Color     string  `json:"color"`
	Y         float64 `json:"y"` // percent of canvas height
}

type ParticipationStyle struct {
	Template   string   `json:"template"`
	DateFormat string   `json:"date_format"`
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Color      string   `json:"color"`
	Position   Position `json:"position"`
	LineHeight float64  `json:"line_height"`
}

type LogoStyle struct {
	URL      string   `json:"url"`
	Width    float64  `json:"width"` // canvas px, height follows aspect ratio
	Position Position `json:"position"`
}

type SignatureStyle struct {
	ImageURL   string   `json:"image_url"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Color      string   `json:"color"`
	ImageWidth float64  `json:"image_width"` // canvas px
	Position   Position `json:"position"`
}

type CertIDStyle struct {
	Show       bool     `json:"show"`
	FontFamily string   `json:"font_family"`
	FontSize   float64  `json:"font_size"`
	Color      string   `json:"color"`
	Position   Position `json:"position"`
}

type QRStyle struct {
	Show bool    `json:"show"`
	Size float64 `json:"size"` // canvas px, square
	Gap  float64 `json:"gap"`  // canvas px between cert number text and QR
}

// LayoutConfig is the partial, user-authored counterpart of Layout.
// Every field is an explicit optional; absent fields fall back to the
// built-in defaults during Resolve. Nested configs merge field by
// field, so setting only name.color keeps the default name.position.
type LayoutConfig struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	Background    *BackgroundConfig    `json:"background,omitempty"`
	Border        *BorderConfig        `json:"border,omitempty"`
	Header        *HeaderConfig        `json:"header,omitempty"`
	Title         *TextConfig          `json:"title,omitempty"`
	Subtitle      *TextConfig          `json:"subtitle,omitempty"`
	GivenTo       *TextConfig          `json:"given_to,omitempty"`
	Name          *NameConfig          `json:"name,omitempty"`
	Separator     *SeparatorConfig     `json:"separator,omitempty"`
	Participation *ParticipationConfig `json:"participation,omitempty"`
	Logos         []LogoConfig         `json:"logos,omitempty"`
	Signatures    []SignatureConfig    `json:"signatures,omitempty"`
	CertID        *CertIDConfig        `json:"cert_id,omitempty"`
	QR            *QRConfig            `json:"qr,omitempty"`
}

type PositionConfig struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

type BackgroundConfig struct {
	Color    *string `json:"color,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

type BorderConfig struct {
	Show      *bool    `json:"show,omitempty"`
	Color     *string  `json:"color,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Inset     *float64 `json:"inset,omitempty"`
}

type HeaderConfig struct {
	Lines      []string        `json:"lines,omitempty"`
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
	LineHeight *float64        `json:"line_height,omitempty"`
}

type TextConfig struct {
	Text       *string         `json:"text,omitempty"`
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Bold       *bool           `json:"bold,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
}

type NameConfig struct {
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Bold       *bool           `json:"bold,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
}

type SeparatorConfig struct {
	Show      *bool    `json:"show,omitempty"`
	WidthPct  *float64 `json:"width_pct,omitempty"`
	Thickness *float64 `json:"thickness,omitempty"`
	Color     *string  `json:"color,omitempty"`
	Y         *float64 `json:"y,omitempty"`
}

type ParticipationConfig struct {
	Template   *string         `json:"template,omitempty"`
	DateFormat *string         `json:"date_format,omitempty"`
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
	LineHeight *float64        `json:"line_height,omitempty"`
}

type LogoConfig struct {
	URL      string          `json:"url"`
	Width    *float64        `json:"width,omitempty"`
	Position *PositionConfig `json:"position,omitempty"`
}

type SignatureConfig struct {
	ImageURL   string          `json:"image_url,omitempty"`
	Name       string          `json:"name"`
	Role       string          `json:"role,omitempty"`
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Color      *string         `json:"color,omitempty"`
	ImageWidth *float64        `json:"image_width,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
}

type CertIDConfig struct {
	Show       *bool           `json:"show,omitempty"`
	FontFamily *string         `json:"font_family,omitempty"`
	FontSize   *float64        `json:"font_size,omitempty"`
	Color      *string         `json:"color,omitempty"`
	Position   *PositionConfig `json:"position,omitempty"`
}

type QRConfig struct {
	Show *bool    `json:"show,omitempty"`
	Size *float64 `json:"size,omitempty"`
	Gap  *float64 `json:"gap,omitempty"`
}

// DefaultLayout returns a fresh copy of the built-in template. Callers
// may mutate the returned value freely; the defaults themselves are
// never shared between calls.
func DefaultLayout() Layout {
	return Layout{
		Width:  1123,
		Height: 794,
		Background: BackgroundStyle{
			Color: "#FFFFFF",
		},
		Border: BorderStyle{
			Show:      true,
			Color:     "#C9A227",
			Thickness: 4,
			Inset:     2.5,
		},
		Header: HeaderStyle{
			Lines:      nil,
			FontFamily: "sans-serif",
			FontSize:   14,
			Color:      "#6B7280",
			Position:   Position{X: 50, Y: 10},
			LineHeight: 1.4,
		},
		Title: TextStyle{
			Text:       "Certificate of Participation",
			FontFamily: "serif",
			FontSize:   44,
			Bold:       true,
			Color:      "#1F2937",
			Position:   Position{X: 50, Y: 24},
		},
		Subtitle: TextStyle{
			Text:       "",
			FontFamily: "serif",
			FontSize:   20,
			Color:      "#4B5563",
			Position:   Position{X: 50, Y: 31},
		},
		GivenTo: TextStyle{
			Text:       "This certificate is proudly presented to",
			FontFamily: "sans-serif",
			FontSize:   17,
			Color:      "#374151",
			Position:   Position{X: 50, Y: 40},
		},
		Name: NameStyle{
			FontFamily: "Great Vibes",
			FontSize:   52,
			Color:      "#111827",
			Position:   Position{X: 50, Y: 50},
		},
		Separator: SeparatorStyle{
			Show:      true,
			WidthPct:  38,
			Thickness: 2,
			Color:     "#C9A227",
			Y:         57,
		},
		Participation: ParticipationStyle{
			Template:   "for participating in {EVENT_NAME}\nheld on {EVENT_DATE} at {VENUE}",
			DateFormat: "January 2, 2006",
			FontFamily: "sans-serif",
			FontSize:   16,
			Color:      "#4B5563",
			Position:   Position{X: 50, Y: 64},
			LineHeight: 1.5,
		},
		CertID: CertIDStyle{
			Show:       true,
			FontFamily: "monospace",
			FontSize:   12,
			Color:      "#6B7280",
			Position:   Position{X: 50, Y: 91},
		},
		QR: QRStyle{
			Show: true,
			Size: 64,
			Gap:  12,
		},
	}
}

// Resolve deep-merges a partial config onto the built-in defaults and
// validates the result. The defaults are never mutated; every call
// starts from a fresh copy. A nil config yields the defaults.
func Resolve(cfg *LayoutConfig) (Layout, error) {
	l := DefaultLayout()
	if cfg != nil {
		mergeLayout(&l, cfg)
	}
	if err := validateLayout(&l); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func mergeLayout(l *Layout, cfg *LayoutConfig) {
	setInt(&l.Width, cfg.Width)
	setInt(&l.Height, cfg.Height)

	if c := cfg.Background; c != nil {
		setStr(&l.Background.Color, c.Color)
		setStr(&l.Background.ImageURL, c.ImageURL)
	}
	if c := cfg.Border; c != nil {
		setBool(&l.Border.Show, c.Show)
		setStr(&l.Border.Color, c.Color)
		setFloat(&l.Border.Thickness, c.Thickness)
		setFloat(&l.Border.Inset, c.Inset)
	}
	if c := cfg.Header; c != nil {
		if c.Lines != nil {
			l.Header.Lines = append([]string(nil), c.Lines...)
		}
		setStr(&l.Header.FontFamily, c.FontFamily)
		setFloat(&l.Header.FontSize, c.FontSize)
		setStr(&l.Header.Color, c.Color)
		mergePosition(&l.Header.Position, c.Position)
		setFloat(&l.Header.LineHeight, c.LineHeight)
	}
	mergeText(&l.Title, cfg.Title)
	mergeText(&l.Subtitle, cfg.Subtitle)
	mergeText(&l.GivenTo, cfg.GivenTo)
	if c := cfg.Name; c != nil {
		setStr(&l.Name.FontFamily, c.FontFamily)
		setFloat(&l.Name.FontSize, c.FontSize)
		setBool(&l.Name.Bold, c.Bold)
		setStr(&l.Name.Color, c.Color)
		mergePosition(&l.Name.Position, c.Position)
	}
	if c := cfg.Separator; c != nil {
		setBool(&l.Separator.Show, c.Show)
		setFloat(&l.Separator.WidthPct, c.WidthPct)
		setFloat(&l.Separator.Thickness, c.Thickness)
		setStr(&l.Separator.Color, c.Color)
		setFloat(&l.Separator.Y, c.Y)
	}
	if c := cfg.Participation; c != nil {
		setStr(&l.Participation.Template, c.Template)
		setStr(&l.Participation.DateFormat, c.DateFormat)
		setStr(&l.Participation.FontFamily, c.FontFamily)
		setFloat(&l.Participation.FontSize, c.FontSize)
		setStr(&l.Participation.Color, c.Color)
		mergePosition(&l.Participation.Position, c.Position)
		setFloat(&l.Participation.LineHeight, c.LineHeight)
	}
	if cfg.Logos != nil {
		l.Logos = make([]LogoStyle, 0, len(cfg.Logos))
		for i, c := range cfg.Logos {
			logo := LogoStyle{
				URL:      c.URL,
				Width:    96,
				Position: Position{X: 12 + float64(i)*18, Y: 12},
			}
			setFloat(&logo.Width, c.Width)
			mergePosition(&logo.Position, c.Position)
			l.Logos = append(l.Logos, logo)
		}
	}
	if cfg.Signatures != nil {
		l.Signatures = make([]SignatureStyle, 0, len(cfg.Signatures))
		for i, c := range cfg.Signatures {
			sig := SignatureStyle{
				ImageURL:   c.ImageURL,
				Name:       c.Name,
				Role:       c.Role,
				FontFamily: "sans-serif",
				FontSize:   14,
				Color:      "#374151",
				ImageWidth: 140,
				Position:   Position{X: 25 + float64(i)*25, Y: 82},
			}
			setStr(&sig.FontFamily, c.FontFamily)
			setFloat(&sig.FontSize, c.FontSize)
			setStr(&sig.Color, c.Color)
			setFloat(&sig.ImageWidth, c.ImageWidth)
			mergePosition(&sig.Position, c.Position)
			l.Signatures = append(l.Signatures, sig)
		}
	}
	if c := cfg.CertID; c != nil {
		setBool(&l.CertID.Show, c.Show)
		setStr(&l.CertID.FontFamily, c.FontFamily)
		setFloat(&l.CertID.FontSize, c.FontSize)
		setStr(&l.CertID.Color, c.Color)
		mergePosition(&l.CertID.Position, c.Position)
	}
	if c := cfg.QR; c != nil {
		setBool(&l.QR.Show, c.Show)
		setFloat(&l.QR.Size, c.Size)
		setFloat(&l.QR.Gap, c.Gap)
	}
}

func mergeText(dst *TextStyle, c *TextConfig) {
	if c == nil {
		return
	}
	setStr(&dst.Text, c.Text)
	setStr(&dst.FontFamily, c.FontFamily)
	setFloat(&dst.FontSize, c.FontSize)
	setBool(&dst.Bold, c.Bold)
	setStr(&dst.Color, c.Color)
	mergePosition(&dst.Position, c.Position)
}

func mergePosition(dst *Position, c *PositionConfig) {
	if c == nil {
		return
	}
	setFloat(&dst.X, c.X)
	setFloat(&dst.Y, c.Y)
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func validateLayout(l *Layout) error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("layout: canvas size %dx%d must be positive", l.Width, l.Height)
	}
	checks := []struct {
		name string
		pos  Position
	}{
		{"header", l.Header.Position},
		{"title", l.Title.Position},
		{"subtitle", l.Subtitle.Position},
		{"given_to", l.GivenTo.Position},
		{"name", l.Name.Position},
		{"participation", l.Participation.Position},
		{"cert_id", l.CertID.Position},
	}
	for _, c := range checks {
		if err := validatePosition(c.name, c.pos); err != nil {
			return err
		}
	}
	for i, logo := range l.Logos {
		if logo.URL == "" {
			return fmt.Errorf("layout: logos[%d] is missing a url", i)
		}
		if err := validatePosition(fmt.Sprintf("logos[%d]", i), logo.Position); err != nil {
			return err
		}
	}
	for i, sig := range l.Signatures {
		if sig.Name == "" {
			return fmt.Errorf("layout: signatures[%d] is missing a name", i)
		}
		if err := validatePosition(fmt.Sprintf("signatures[%d]", i), sig.Position); err != nil {
			return err
		}
	}
	if l.Separator.Y < 0 || l.Separator.Y > 100 {
		return fmt.Errorf("layout: separator y %.1f out of range 0-100", l.Separator.Y)
	}
	colors := map[string]string{
		"background":    l.Background.Color,
		"border":        l.Border.Color,
		"header":        l.Header.Color,
		"title":         l.Title.Color,
		"subtitle":      l.Subtitle.Color,
		"given_to":      l.GivenTo.Color,
		"name":          l.Name.Color,
		"separator":     l.Separator.Color,
		"participation": l.Participation.Color,
		"cert_id":       l.CertID.Color,
	}
	for name, c := range colors {
		if _, err := ParseHexColor(c); err != nil {
			return fmt.Errorf("layout: %s color: %w", name, err)
		}
	}
	for i, sig := range l.Signatures {
		if _, err := ParseHexColor(sig.Color); err != nil {
			return fmt.Errorf("layout: signatures[%d] color: %w", i, err)
		}
	}
	if l.QR.Size <= 0 {
		return fmt.Errorf("layout: qr size %.1f must be positive", l.QR.Size)
	}
	return nil
}

func validatePosition(name string, p Position) error {
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return fmt.Errorf("layout: %s position (%.1f, %.1f) out of range 0-100", name, p.X, p.Y)
	}
	return nil
}

// RGB is a decoded hex color.
type RGB struct {
	R, G, B uint8
}

// ParseHexColor decodes "#RRGGBB" (the leading # is optional).
func ParseHexColor(s string) (RGB, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	r, err1 := strconv.ParseUint(h[0:2], 16, 8)
	g, err2 := strconv.ParseUint(h[2:4], 16, 8)
	b, err3 := strconv.ParseUint(h[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
