package report

import (
	"image"
	"image/color"
	"strconv"
	"time"

	"github.com/countrycache/countrycache/internal/country"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Width  = 800
	Height = 480

	// TopN is how many countries the chart shows.
	TopN = 5

	title      = "Top 5 Countries by Estimated GDP"
	barLeft    = 190
	barMaxW    = 480
	barHeight  = 36
	barGap     = 24
	chartTop   = 70
	maxLabel   = 22
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	barColor   = color.RGBA{0x87, 0xce, 0xeb, 0xff}
	textColor  = color.RGBA{0x20, 0x20, 0x20, 0xff}
	axisColor  = color.RGBA{0x99, 0x99, 0x99, 0xff}
)

// Summary is the data drawn on the chart. Top is expected sorted by GDP descending.
type Summary struct {
	Total           int64
	LastRefreshedAt *time.Time
	Top             []*country.Country
}

// Render draws the summary as a horizontal bar chart.
func Render(s Summary) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}

	text(d, (Width-d.MeasureString(title).Round())/2, 36, title)

	top := s.Top
	if len(top) > TopN {
		top = top[:TopN]
	}
	var maxGDP float64
	for _, c := range top {
		if c.EstimatedGDP > maxGDP {
			maxGDP = c.EstimatedGDP
		}
	}

	axisBottom := chartTop + TopN*(barHeight+barGap)
	fill(img, image.Rect(barLeft-1, chartTop-8, barLeft, axisBottom), axisColor)

	for i, c := range top {
		y := chartTop + i*(barHeight+barGap)
		baseline := y + barHeight/2 + face.Ascent/2

		label := clip(c.Name, maxLabel)
		text(d, barLeft-10-d.MeasureString(label).Round(), baseline, label)

		w := 0
		if maxGDP > 0 {
			w = int(c.EstimatedGDP / maxGDP * barMaxW)
		}
		if w < 1 && c.EstimatedGDP > 0 {
			w = 1
		}
		fill(img, image.Rect(barLeft, y, barLeft+w, y+barHeight), barColor)
		text(d, barLeft+w+8, baseline, formatGDP(c.EstimatedGDP))
	}

	last := "N/A"
	if s.LastRefreshedAt != nil {
		last = s.LastRefreshedAt.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	text(d, 20, Height-40, "Total Countries: "+strconv.FormatInt(s.Total, 10))
	text(d, 20, Height-20, "Last Refreshed: "+last)
	return img
}

func text(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func formatGDP(v float64) string {
	return strconv.FormatFloat(v, 'e', 3, 64)
}
