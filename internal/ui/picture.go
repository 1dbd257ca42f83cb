package ui

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/five82/vitrine/internal/nav"
)

// renderPicture draws img into w×h cells using upper half blocks, so every
// cell carries two vertically stacked pixels. The image is fitted into the
// w×2h pixel box, centred, and then mapped through t; transparent and
// uncovered pixels are left blank.
func renderPicture(img image.Image, w, h int, t nav.Transform) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	if img == nil || img.Bounds().Empty() {
		return blankBox(w, h)
	}
	if t.Scale <= 0 {
		t = nav.Identity()
	}

	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	pw, ph := float64(w), float64(h*2)
	fit := min(pw/iw, ph/ih)
	ox := (pw - iw*fit) / 2
	oy := (ph - ih*fit) / 2

	sample := func(sx, sy int) (color.NRGBA, bool) {
		x := (float64(sx) + 0.5 - t.TX) / t.Scale
		y := (float64(sy) + 0.5 - t.TY) / t.Scale
		ix := (x - ox) / fit
		iy := (y - oy) / fit
		if ix < 0 || iy < 0 || ix >= iw || iy >= ih {
			return color.NRGBA{}, false
		}
		c := color.NRGBAModel.Convert(img.At(b.Min.X+int(ix), b.Min.Y+int(iy))).(color.NRGBA)
		return c, c.A >= 128
	}

	var sb strings.Builder
	buf := make([]byte, 0, 48)
	for row := range h {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := range w {
			top, hasTop := sample(col, row*2)
			bot, hasBot := sample(col, row*2+1)
			buf = buf[:0]
			switch {
			case hasTop && hasBot:
				buf = appendColor(buf, 38, top)
				buf = appendColor(buf, 48, bot)
				buf = append(buf, "▀"...)
			case hasTop:
				buf = appendColor(buf, 38, top)
				buf = append(buf, "\x1b[49m▀"...)
			case hasBot:
				buf = appendColor(buf, 38, bot)
				buf = append(buf, "\x1b[49m▄"...)
			default:
				buf = append(buf, ansi.ResetStyle+" "...)
			}
			sb.Write(buf)
		}
		sb.WriteString(ansi.ResetStyle)
	}
	return sb.String()
}

// appendColor appends a 24-bit SGR color; layer is 38 for foreground and
// 48 for background.
func appendColor(buf []byte, layer int, c color.NRGBA) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendInt(buf, int64(layer), 10)
	buf = append(buf, ";2;"...)
	buf = strconv.AppendUint(buf, uint64(c.R), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.G), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(c.B), 10)
	return append(buf, 'm')
}

func blankBox(w, h int) string {
	line := strings.Repeat(" ", w)
	lines := make([]string, h)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// downscale returns img reduced so neither side exceeds maxDim, using
// nearest-neighbour sampling. Smaller images are returned unchanged.
func downscale(img image.Image, maxDim int) image.Image {
	if img == nil || maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	ratio := float64(maxDim) / float64(max(w, h))
	nw, nh := max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
	out := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	for y := range nh {
		sy := b.Min.Y + y*h/nh
		for x := range nw {
			sx := b.Min.X + x*w/nw
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
