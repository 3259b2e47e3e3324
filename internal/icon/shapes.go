package icon

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// inRoundedRect tests the pixel centre (px,py) against r with corner radius.
func inRoundedRect(r image.Rectangle, radius, px, py float64) bool {
	left, top := float64(r.Min.X), float64(r.Min.Y)
	right, bottom := float64(r.Max.X), float64(r.Max.Y)
	if px < left || px >= right || py < top || py >= bottom {
		return false
	}
	if radius <= 0 {
		return true
	}
	var cx, cy float64
	switch {
	case px < left+radius && py < top+radius:
		cx, cy = left+radius, top+radius
	case px > right-radius && py < top+radius:
		cx, cy = right-radius, top+radius
	case px < left+radius && py > bottom-radius:
		cx, cy = left+radius, bottom-radius
	case px > right-radius && py > bottom-radius:
		cx, cy = right-radius, bottom-radius
	default:
		return true
	}
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= radius*radius
}

// strokeRoundedRect draws a border of the given width just inside r.
func strokeRoundedRect(img *image.RGBA, r image.Rectangle, radius, width int, c color.RGBA) {
	inner := r.Inset(width)
	innerRadius := radius - width
	if innerRadius < 0 {
		innerRadius = 0
	}
	area := r.Intersect(img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			if !inRoundedRect(r, float64(radius), px, py) {
				continue
			}
			if !inner.Empty() && inRoundedRect(inner, float64(innerRadius), px, py) {
				continue
			}
			img.SetRGBA(x, y, c)
		}
	}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// boltPoints is the lightning-bolt outline centred in r.
func boltPoints(r image.Rectangle) [][2]float32 {
	cx := (r.Min.X + r.Max.X) / 2
	cy := (r.Min.Y + r.Max.Y) / 2
	w := r.Dx() / 3
	if w < 4 {
		w = 4
	}
	h := r.Dy() / 2
	if h < 6 {
		h = 6
	}
	pts := [][2]int{
		{cx - w/3, cy - h/2}, {cx, cy - h/2},
		{cx - w/6, cy}, {cx + w/3, cy},
		{cx - w/6, cy + h/2}, {cx - w/2, cy + h/2},
		{cx, cy}, {cx - w/3, cy - h/2},
	}
	out := make([][2]float32, len(pts))
	for i, p := range pts {
		out[i] = [2]float32{float32(p[0]) + 0.5, float32(p[1]) + 0.5}
	}
	return out
}

func fillPolygon(img *image.RGBA, pts [][2]float32, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		z.LineTo(p[0], p[1])
	}
	z.ClosePath()
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}
