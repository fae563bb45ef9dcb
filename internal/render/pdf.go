package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer draws a LayoutPlan onto a single-page PDF whose page is
// sized so one point equals one canvas unit. Positions flow through
// the vector mapping (bottom-left origin, Y up) and are converted to
// gofpdf's top-left space only at the draw call.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) Render(plan *LayoutPlan) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: plan.Canvas.W, Ht: plan.Canvas.H},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	d := &pdfDraw{pdf: pdf, canvas: plan.Canvas, fonts: make(map[string]bool)}
	for _, e := range plan.Elements {
		if err := d.element(plan, e); err != nil {
			return nil, err
		}
	}
	if pdf.Err() {
		return nil, fmt.Errorf("pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfDraw struct {
	pdf    *gofpdf.Fpdf
	canvas Canvas
	fonts  map[string]bool // registered embedded font names
	images int             // counter for unique image names
}

// topY converts a vector-space Y (origin bottom-left, up) back to
// gofpdf's top-left, Y-down page space.
func (d *pdfDraw) topY(y float64) float64 {
	return d.canvas.H - y
}

func (d *pdfDraw) element(plan *LayoutPlan, e Element) error {
	switch e.Kind {
	case KindBackground:
		if e.Image != nil {
			return d.image(e.Image, 0, d.canvas.H, d.canvas.W, d.canvas.H)
		}
		d.pdf.SetFillColor(int(plan.Background.R), int(plan.Background.G), int(plan.Background.B))
		d.pdf.Rect(0, 0, d.canvas.W, d.canvas.H, "F")
	case KindBorder:
		inset := d.canvas.PctWidth(e.Inset)
		d.pdf.SetDrawColor(int(e.Color.R), int(e.Color.G), int(e.Color.B))
		d.pdf.SetLineWidth(e.Thickness)
		d.pdf.Rect(inset, inset, d.canvas.W-2*inset, d.canvas.H-2*inset, "D")
	case KindLogo:
		pt := d.canvas.ToVector(e.Position)
		h := imageHeightFor(e.Image, e.ImageWidth)
		return d.image(e.Image, pt.X-e.ImageWidth/2, pt.Y+h/2, e.ImageWidth, h)
	case KindSeparator:
		pt := d.canvas.ToVector(e.Position)
		half := d.canvas.PctWidth(e.WidthPct) / 2
		y := d.topY(pt.Y)
		d.pdf.SetDrawColor(int(e.Color.R), int(e.Color.G), int(e.Color.B))
		d.pdf.SetLineWidth(e.Thickness)
		d.pdf.Line(pt.X-half, y, pt.X+half, y)
	case KindSignature:
		return d.signature(e)
	case KindCertNumber:
		return d.certNumber(e)
	default:
		d.textBlock(e)
	}
	return nil
}

// textBlock draws e.Lines centered horizontally on the element
// position; the first line's vertical center sits on the position and
// subsequent lines advance downward by FontSize*LineHeight.
func (d *pdfDraw) textBlock(e Element) {
	d.setFont(e.Font, e.FontSize)
	d.pdf.SetTextColor(int(e.Color.R), int(e.Color.G), int(e.Color.B))
	pt := d.canvas.ToVector(e.Position)
	step := lineStep(e.FontSize, e.LineHeight)
	for i, line := range e.Lines {
		w := d.pdf.GetStringWidth(line)
		y := d.topY(pt.Y) + float64(i)*step
		d.pdf.Text(pt.X-w/2, y+e.FontSize*0.35, line)
	}
}

func (d *pdfDraw) signature(e Element) error {
	pt := d.canvas.ToVector(e.Position)
	if e.Image != nil {
		h := imageHeightFor(e.Image, e.ImageWidth)
		// Image sits directly above the name line.
		top := pt.Y + e.FontSize*0.7 + 6 + h
		if err := d.image(e.Image, pt.X-e.ImageWidth/2, top, e.ImageWidth, h); err != nil {
			return err
		}
	}
	d.textBlock(e)
	return nil
}

func (d *pdfDraw) certNumber(e Element) error {
	d.setFont(e.Font, e.FontSize)
	d.pdf.SetTextColor(int(e.Color.R), int(e.Color.G), int(e.Color.B))
	pt := d.canvas.ToVector(e.Position)
	line := e.Lines[0]
	w := d.pdf.GetStringWidth(line)
	y := d.topY(pt.Y)
	d.pdf.Text(pt.X-w/2, y+e.FontSize*0.35, line)
	if e.QR != nil {
		x := pt.X + w/2 + e.QRGap
		return d.image(e.QR, x, pt.Y+e.QRSize/2, e.QRSize, e.QRSize)
	}
	return nil
}

// setFont selects either the embedded decorative TTF or the core-font
// substitute for the handle's class. Core substitutes: Times for
// serif, Courier for monospace, Helvetica for sans.
func (d *pdfDraw) setFont(f FontHandle, size float64) {
	if f.TTF != nil {
		name := "deco-" + sanitizeFontName(f.Family)
		if !d.fonts[name] {
			d.pdf.AddUTF8FontFromBytes(name, "", f.TTF)
			d.fonts[name] = true
		}
		d.pdf.SetFont(name, "", size)
		return
	}
	style := ""
	if f.Bold {
		style = "B"
	}
	switch f.Class {
	case ClassSerif:
		d.pdf.SetFont("Times", style, size)
	case ClassMonospace:
		d.pdf.SetFont("Courier", style, size)
	default:
		d.pdf.SetFont("Helvetica", style, size)
	}
}

// image places a decoded raster with its top-left at (x, topVectorY)
// in vector space. gofpdf wants PNG bytes, so the raster is re-encoded
// once per placement.
func (d *pdfDraw) image(img image.Image, x, topVectorY, w, h float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("pdf image encode: %w", err)
	}
	d.images++
	name := fmt.Sprintf("img-%d", d.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, x, d.topY(topVectorY), w, h, false, opts, 0, "")
	return nil
}

func imageHeightFor(img image.Image, width float64) float64 {
	b := img.Bounds()
	if b.Dx() == 0 {
		return width
	}
	return width * float64(b.Dy()) / float64(b.Dx())
}

func lineStep(size, lineHeight float64) float64 {
	if lineHeight <= 0 {
		lineHeight = 1.4
	}
	return size * lineHeight
}

func sanitizeFontName(family string) string {
	out := make([]rune, 0, len(family))
	for _, r := range family {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	return string(out)
}
