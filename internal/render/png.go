package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// PNGRenderer draws a LayoutPlan onto an RGBA image whose pixel grid
// equals the canvas grid, so percentage positions map straight through
// with no axis inversion.
type PNGRenderer struct{}

func NewPNGRenderer() *PNGRenderer { return &PNGRenderer{} }

func (r *PNGRenderer) Render(plan *LayoutPlan) ([]byte, error) {
	w, h := int(plan.Canvas.W), int(plan.Canvas.H)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &rasterDraw{dst: dst, canvas: plan.Canvas, faces: make(map[faceKey]font.Face)}
	for _, e := range plan.Elements {
		if err := d.element(plan, e); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

type faceKey struct {
	family string
	class  FontClass
	bold   bool
	size   float64
}

type rasterDraw struct {
	dst    *image.RGBA
	canvas Canvas
	faces  map[faceKey]font.Face
}

func (d *rasterDraw) element(plan *LayoutPlan, e Element) error {
	switch e.Kind {
	case KindBackground:
		d.fill(d.dst.Bounds(), plan.Background)
		if e.Image != nil {
			scaled := imaging.Resize(e.Image, d.dst.Bounds().Dx(), d.dst.Bounds().Dy(), imaging.Lanczos)
			draw.Draw(d.dst, d.dst.Bounds(), scaled, image.Point{}, draw.Over)
		}
	case KindBorder:
		d.border(e)
	case KindLogo:
		pt := d.canvas.ToRaster(e.Position)
		d.pasteScaled(e.Image, pt, e.ImageWidth, true)
	case KindSeparator:
		pt := d.canvas.ToRaster(e.Position)
		half := d.canvas.PctWidth(e.WidthPct) / 2
		rect := image.Rect(
			int(pt.X-half), int(pt.Y-e.Thickness/2),
			int(pt.X+half), int(pt.Y+e.Thickness/2),
		)
		d.fill(rect, e.Color)
	case KindSignature:
		return d.signature(e)
	case KindCertNumber:
		return d.certNumber(e)
	default:
		return d.textBlock(e)
	}
	return nil
}

// textBlock mirrors the vector backend: each line centered on the
// element X, the first line's vertical center on the element Y, and
// a FontSize*LineHeight step between lines.
func (d *rasterDraw) textBlock(e Element) error {
	face, err := d.face(e.Font, e.FontSize)
	if err != nil {
		return err
	}
	pt := d.canvas.ToRaster(e.Position)
	step := lineStep(e.FontSize, e.LineHeight)
	for i, line := range e.Lines {
		y := pt.Y + float64(i)*step
		d.drawText(face, line, e.Color, pt.X, y+e.FontSize*0.35)
	}
	return nil
}

func (d *rasterDraw) signature(e Element) error {
	pt := d.canvas.ToRaster(e.Position)
	if e.Image != nil {
		h := imageHeightFor(e.Image, e.ImageWidth)
		top := pt.Y - e.FontSize*0.7 - 6 - h
		d.pasteScaled(e.Image, DevicePoint{X: pt.X, Y: top}, e.ImageWidth, false)
	}
	return d.textBlock(e)
}

func (d *rasterDraw) certNumber(e Element) error {
	face, err := d.face(e.Font, e.FontSize)
	if err != nil {
		return err
	}
	pt := d.canvas.ToRaster(e.Position)
	line := e.Lines[0]
	w := fixedToFloat(font.MeasureString(face, line))
	d.drawText(face, line, e.Color, pt.X, pt.Y+e.FontSize*0.35)
	if e.QR != nil {
		scaled := imaging.Resize(e.QR, int(e.QRSize), int(e.QRSize), imaging.NearestNeighbor)
		x := int(pt.X + w/2 + e.QRGap)
		y := int(pt.Y - e.QRSize/2)
		r := image.Rect(x, y, x+int(e.QRSize), y+int(e.QRSize))
		draw.Draw(d.dst, r, scaled, image.Point{}, draw.Over)
	}
	return nil
}

// drawText renders one line with its horizontal center at cx and its
// baseline at baseY.
func (d *rasterDraw) drawText(face font.Face, line string, c RGB, cx, baseY float64) {
	w := fixedToFloat(font.MeasureString(face, line))
	dr := &font.Drawer{
		Dst:  d.dst,
		Src:  image.NewUniform(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(cx - w/2), Y: floatToFixed(baseY)},
	}
	dr.DrawString(line)
}

func (d *rasterDraw) border(e Element) {
	inset := int(d.canvas.PctWidth(e.Inset))
	t := int(e.Thickness)
	if t < 1 {
		t = 1
	}
	w, h := d.dst.Bounds().Dx(), d.dst.Bounds().Dy()
	d.fill(image.Rect(inset, inset, w-inset, inset+t), e.Color)         // top
	d.fill(image.Rect(inset, h-inset-t, w-inset, h-inset), e.Color)     // bottom
	d.fill(image.Rect(inset, inset+t, inset+t, h-inset-t), e.Color)     // left
	d.fill(image.Rect(w-inset-t, inset+t, w-inset, h-inset-t), e.Color) // right
}

func (d *rasterDraw) fill(r image.Rectangle, c RGB) {
	draw.Draw(d.dst, r, image.NewUniform(color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}), image.Point{}, draw.Src)
}

// pasteScaled resizes img to the given width (height follows aspect
// ratio) and pastes it. When centered is true, pt is the image center;
// otherwise pt is the top-left of the image with X still centered.
func (d *rasterDraw) pasteScaled(img image.Image, pt DevicePoint, width float64, centered bool) {
	if img == nil || width <= 0 {
		return
	}
	scaled := imaging.Resize(img, int(width), 0, imaging.Lanczos)
	h := scaled.Bounds().Dy()
	x := int(pt.X - width/2)
	y := int(pt.Y)
	if centered {
		y = int(pt.Y) - h/2
	}
	r := image.Rect(x, y, x+scaled.Bounds().Dx(), y+h)
	draw.Draw(d.dst, r, scaled, image.Point{}, draw.Over)
}

// face returns a cached font.Face for the handle at the given size.
// A decorative TTF that fails to parse degrades to the class face.
func (d *rasterDraw) face(f FontHandle, size float64) (font.Face, error) {
	key := faceKey{family: f.Family, class: f.Class, bold: f.Bold, size: size}
	if face, ok := d.faces[key]; ok {
		return face, nil
	}
	ttf := f.TTF
	if ttf == nil {
		ttf = classTTF(f.Class, f.Bold)
	}
	face, err := newFace(ttf, size)
	if err != nil && f.TTF != nil {
		face, err = newFace(classTTF(f.Class, f.Bold), size)
	}
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	d.faces[key] = face
	return face, nil
}

// classTTF picks the bundled Go font for a substitution class. There
// is no bundled serif face, so serif falls back to the regular face;
// glyph-level parity between backends is not a goal, placement parity
// is.
func classTTF(class FontClass, bold bool) []byte {
	switch {
	case class == ClassMonospace && bold:
		return gomonobold.TTF
	case class == ClassMonospace:
		return gomono.TTF
	case bold:
		return gobold.TTF
	default:
		return goregular.TTF
	}
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
