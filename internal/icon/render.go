// Package icon draws the tray battery glyph: a rounded battery body with a
// threshold-coloured fill, an optional lightning bolt and the percentage label.
package icon

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the icon edge in pixels. Tray hosts scale as needed.
const DefaultSize = 24

const minLabelPx = 6

// Tier is the colour band a percentage falls in.
type Tier int

const (
	TierCritical Tier = iota
	TierWarning
	TierGood
)

func (t Tier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierWarning:
		return "warning"
	default:
		return "critical"
	}
}

// TierFor applies the thresholds in order: >50 good, 25..50 warning, <25 critical.
func TierFor(percent int) Tier {
	switch {
	case percent > 50:
		return TierGood
	case percent >= 25:
		return TierWarning
	default:
		return TierCritical
	}
}

// Palette holds every colour the renderer uses.
type Palette struct {
	Good     color.RGBA
	Warning  color.RGBA
	Critical color.RGBA
	Border   color.RGBA
	Bolt     color.RGBA
	Text     color.RGBA
	Shadow   color.RGBA
}

var DefaultPalette = Palette{
	Good:     color.RGBA{70, 190, 80, 255},
	Warning:  color.RGBA{240, 180, 50, 255},
	Critical: color.RGBA{230, 80, 70, 255},
	Border:   color.RGBA{235, 235, 235, 255},
	Bolt:     color.RGBA{245, 245, 245, 255},
	Text:     color.RGBA{255, 255, 255, 255},
	Shadow:   color.RGBA{0, 0, 0, 160},
}

func (p Palette) Fill(t Tier) color.RGBA {
	switch t {
	case TierGood:
		return p.Good
	case TierWarning:
		return p.Warning
	default:
		return p.Critical
	}
}

// Layout is everything derived from (percent, charging) before drawing.
type Layout struct {
	Size        int
	Percent     int
	Tier        Tier
	Fill        color.RGBA
	Border      color.RGBA
	Body        image.Rectangle
	Nub         image.Rectangle
	Inner       image.Rectangle
	Radius      int
	BorderWidth int
	FillWidth   int
	Bolt        bool
	Label       string
}

// InnerWidth is the width a 100% fill covers.
func (s Layout) InnerWidth() int { return s.Inner.Dx() }

// FillRect is the part of Inner painted with the fill colour.
func (s Layout) FillRect() image.Rectangle {
	return image.Rect(s.Inner.Min.X, s.Inner.Min.Y, s.Inner.Min.X+s.FillWidth, s.Inner.Max.Y)
}

// Label formats the percentage as two zero-padded digits; 100 keeps all three.
func Label(percent int) string {
	return fmt.Sprintf("%02d", clampPercent(percent))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Renderer is safe for concurrent use; it holds no per-render state.
type Renderer struct {
	Size           int
	Palette        Palette
	Fonts          *FontSource
	ShowPercentage bool
}

func NewRenderer(fonts *FontSource) *Renderer {
	if fonts == nil {
		fonts = BuiltinFont()
	}
	return &Renderer{
		Size:           DefaultSize,
		Palette:        DefaultPalette,
		Fonts:          fonts,
		ShowPercentage: true,
	}
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Render draws with a renderer backed by the embedded Go Bold face.
func Render(percent int, charging bool) *image.RGBA {
	defaultOnce.Do(func() { defaultRenderer = NewRenderer(GoBold()) })
	return defaultRenderer.Render(percent, charging)
}

func (r *Renderer) size() int {
	if r.Size < 16 {
		return DefaultSize
	}
	return r.Size
}

// Layout computes the layout and colours for one render.
func (r *Renderer) Layout(percent int, charging bool) Layout {
	size := r.size()
	percent = clampPercent(percent)

	pad := size / 12
	border := size / 12
	if border < 1 {
		border = 1
	}
	body := image.Rect(pad, pad, size-2*pad+1, size-2*pad+1)

	nubW, nubH := size/6, size/3
	nubTop := body.Min.Y + (body.Dy()-nubH)/2
	nub := image.Rect(body.Max.X, nubTop, body.Max.X+nubW, nubTop+nubH)

	inner := body.Inset(size / 6)
	fillW := inner.Dx() * percent / 100
	if fillW < 0 {
		fillW = 0
	}

	tier := TierFor(percent)
	return Layout{
		Size:        size,
		Percent:     percent,
		Tier:        tier,
		Fill:        r.Palette.Fill(tier),
		Border:      r.Palette.Border,
		Body:        body,
		Nub:         nub,
		Inner:       inner,
		Radius:      size / 6,
		BorderWidth: border,
		FillWidth:   fillW,
		Bolt:        charging && percent < 100,
		Label:       Label(percent),
	}
}

// Render draws the icon. Input outside [0,100] is clamped.
func (r *Renderer) Render(percent int, charging bool) *image.RGBA {
	lay := r.Layout(percent, charging)
	img := image.NewRGBA(image.Rect(0, 0, lay.Size, lay.Size))

	strokeRoundedRect(img, lay.Body, lay.Radius, lay.BorderWidth, lay.Border)
	fillRect(img, lay.Nub.Intersect(img.Bounds()), lay.Border)
	fillRect(img, lay.FillRect(), lay.Fill)

	if lay.Bolt {
		fillPolygon(img, boltPoints(lay.Inner), r.Palette.Bolt)
	}
	if r.ShowPercentage {
		r.drawLabel(img, lay)
	}
	return img
}

func (r *Renderer) drawLabel(img *image.RGBA, lay Layout) {
	maxW := fixed.I(lay.Body.Dx() - 1)
	face := r.labelFace(lay.Label, lay.Size*17/24, maxW)

	bodyX, bodyY := fixed.I(lay.Body.Min.X), fixed.I(lay.Body.Min.Y)
	bodyW, bodyH := fixed.I(lay.Body.Dx()), fixed.I(lay.Body.Dy())

	// Centre the ink box. Faces that report no bounds are centred on
	// ascent+descent around the baseline instead.
	var dot fixed.Point26_6
	bounds, advance := font.BoundString(face, lay.Label)
	if bounds.Empty() {
		m := face.Metrics()
		dot.X = bodyX + (bodyW-advance)/2
		dot.Y = bodyY + (bodyH-(m.Ascent+m.Descent))/2 + m.Ascent
	} else {
		dot.X = bodyX + (bodyW-(bounds.Max.X-bounds.Min.X))/2 - bounds.Min.X
		dot.Y = bodyY + (bodyH-(bounds.Max.Y-bounds.Min.Y))/2 - bounds.Min.Y
	}

	d := font.Drawer{Dst: img, Face: face}
	d.Src = image.NewUniform(r.Palette.Shadow)
	d.Dot = fixed.Point26_6{X: dot.X + fixed.I(1), Y: dot.Y + fixed.I(1)}
	d.DrawString(lay.Label)

	d.Src = image.NewUniform(r.Palette.Text)
	d.Dot = dot
	d.DrawString(lay.Label)
}

// labelFace returns the largest face up to px whose ink fits in maxW.
func (r *Renderer) labelFace(label string, px int, maxW fixed.Int26_6) font.Face {
	if !r.Fonts.Scalable() {
		return r.Fonts.Face(0)
	}
	for size := px; size > minLabelPx; size-- {
		face := r.Fonts.Face(float64(size))
		b, _ := font.BoundString(face, label)
		if b.Max.X-b.Min.X <= maxW {
			return face
		}
	}
	return r.Fonts.Face(minLabelPx)
}
