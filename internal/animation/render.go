package animation

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"math"
	"strconv"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultFrameDelay is the display time of each GIF frame.
const DefaultFrameDelay = 150 * time.Millisecond

// RenderOptions controls GIF output.
type RenderOptions struct {
	Width, Height int
	Delay         time.Duration
	YLabel        string
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 320
	}
	if o.Delay <= 0 {
		o.Delay = DefaultFrameDelay
	}
	return o
}

var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorAxis       = color.RGBA{0x37, 0x41, 0x51, 0xff}
	colorGrid       = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorBar        = color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	colorTrend      = color.RGBA{0xef, 0x44, 0x44, 0xff}

	palette = color.Palette{colorBackground, colorAxis, colorGrid, colorBar, colorTrend}
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 20
	marginBottom = 40
)

// EncodeGIF draws one image per frame and writes a looping animated GIF.
// totalPoints is the length of the full series; it fixes the bar width so
// bars keep their size as frames grow.
func EncodeGIF(w io.Writer, frames []Frame, totalPoints int, opts RenderOptions) error {
	if len(frames) == 0 {
		return fmt.Errorf("encode gif: no frames")
	}
	opts = opts.withDefaults()
	delay := int(opts.Delay / (10 * time.Millisecond))

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, renderFrame(f, totalPoints, opts))
		anim.Delay = append(anim.Delay, delay)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

type plot struct {
	img  *image.Paletted
	area image.Rectangle
	axes Axes
}

func (p plot) x(t time.Time) int {
	span := p.axes.X.End.Sub(p.axes.X.Start)
	if span <= 0 {
		return p.area.Min.X + p.area.Dx()/2
	}
	frac := float64(t.Sub(p.axes.X.Start)) / float64(span)
	return p.area.Min.X + int(math.Round(frac*float64(p.area.Dx())))
}

func (p plot) y(v float64) int {
	frac := (v - p.axes.Y.Min) / (p.axes.Y.Max - p.axes.Y.Min)
	return p.area.Max.Y - int(math.Round(frac*float64(p.area.Dy())))
}

func renderFrame(f Frame, totalPoints int, opts RenderOptions) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, opts.Width, opts.Height), palette)
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	p := plot{
		img:  img,
		area: image.Rect(marginLeft, marginTop, opts.Width-marginRight, opts.Height-marginBottom),
		axes: f.Axes,
	}

	for i := 1; i <= 4; i++ {
		y := p.area.Max.Y - p.area.Dy()*i/4
		fill(img, image.Rect(p.area.Min.X, y, p.area.Max.X, y+1), colorGrid)
	}

	barWidth := max(1, int(0.8*float64(p.area.Dx())/float64(max(totalPoints, 1))))
	base := p.y(max(0, f.Axes.Y.Min))
	for i, t := range f.Timestamps {
		cx, top := p.x(t), p.y(f.Values[i])
		r := image.Rect(cx-barWidth/2, min(top, base), cx-barWidth/2+barWidth, max(top, base))
		fill(img, r.Intersect(p.area), colorBar)
	}

	for i := 1; i < len(f.Trend); i++ {
		line(img, p.x(f.Timestamps[i-1]), p.y(f.Trend[i-1]), p.x(f.Timestamps[i]), p.y(f.Trend[i]), colorTrend)
	}

	fill(img, image.Rect(p.area.Min.X, p.area.Min.Y, p.area.Min.X+1, p.area.Max.Y+1), colorAxis)
	fill(img, image.Rect(p.area.Min.X, p.area.Max.Y, p.area.Max.X, p.area.Max.Y+1), colorAxis)

	label(img, 4, p.area.Min.Y+10, strconv.FormatFloat(f.Axes.Y.Max, 'f', 1, 64))
	label(img, 4, p.area.Max.Y, strconv.FormatFloat(f.Axes.Y.Min, 'f', 1, 64))
	label(img, p.area.Min.X, p.area.Max.Y+16, f.Axes.X.Start.Format(time.DateOnly))
	label(img, p.area.Max.X-70, p.area.Max.Y+16, f.Axes.X.End.Format(time.DateOnly))
	label(img, p.area.Min.X+p.area.Dx()/2-14, p.area.Max.Y+32, "Date")
	if opts.YLabel != "" {
		label(img, p.area.Min.X+8, p.area.Min.Y-6, opts.YLabel)
	}
	return img
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// line draws a two pixel thick segment with Bresenham's algorithm.
func line(img *image.Paletted, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		img.Set(x0, y0+1, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func label(img draw.Image, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorAxis),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
