package chart

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/uhi-profile/internal/profile"
)

// Grid is the raster band a preview is drawn from.
type Grid interface {
	profile.Band
	IsNoData(v float64) bool
}

// PreviewResult is a rendered preview.
type PreviewResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	ImageBase64 string  `json:"image_base64,omitempty"`
	MimeType    string  `json:"mime_type"`

	img image.Image
}

// Image returns the rendered image.
func (p *PreviewResult) Image() image.Image { return p.img }

var (
	noDataColor = color.RGBA{0, 0, 0, 0}
	centerColor = color.RGBA{255, 255, 255, 255}
	labelBG     = color.RGBA{0, 0, 0, 180}
)

// Preview colors the band on a blue to red ramp stretched over its valid
// range, draws the sampled ray pixels in their axis colors and marks the
// center. The result is shrunk so its longer edge is at most maxSize.
func Preview(g Grid, records []profile.Record, dirs []profile.Direction, centerRow, centerCol, maxSize int) (*PreviewResult, error) {
	height, width := g.Dims()
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("empty raster %dx%d", width, height)
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid preview size %d", maxSize)
	}

	lo, hi := valueRange(g)
	span := hi - lo

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			v := g.At(r, c)
			if g.IsNoData(v) || math.IsNaN(v) || math.IsInf(v, 0) {
				img.Set(c, r, noDataColor)
				continue
			}
			t := 0.5
			if span > 0 {
				t = (v - lo) / span
			}
			img.Set(c, r, lstRamp(t))
		}
	}

	colors := axisColors(dirs)
	byName := make(map[string]string, len(dirs))
	for _, d := range dirs {
		byName[d.Name] = d.Axis
	}
	for _, rec := range records {
		if c, ok := colors[byName[rec.SubDirection]]; ok {
			img.Set(rec.Col, rec.Row, c)
		}
	}

	var out image.Image = img
	scale := 1.0
	if width > maxSize || height > maxSize {
		out = imaging.Fit(img, maxSize, maxSize, imaging.NearestNeighbor)
		scale = float64(out.Bounds().Dx()) / float64(width)
	}

	// The marker and label go on after resizing so they stay legible.
	marked := imaging.Clone(out)
	cx := int(float64(centerCol)*scale + scale/2)
	cy := int(float64(centerRow)*scale + scale/2)
	drawCross(marked, cx, cy, 3, centerColor)
	drawLabel(marked, 2, 2, formatRange(lo, hi), centerColor, labelBG)

	var buf bytes.Buffer
	if err := png.Encode(&buf, marked); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &PreviewResult{
		Width:       marked.Bounds().Dx(),
		Height:      marked.Bounds().Dy(),
		Scale:       scale,
		Min:         lo,
		Max:         hi,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		img:         marked,
	}, nil
}

// SavePNG writes the preview image to path.
func (p *PreviewResult) SavePNG(path string) error {
	if err := imgio.Save(path, p.img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save preview %s: %w", path, err)
	}
	return nil
}

func valueRange(g Grid) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	height, width := g.Dims()
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			v := g.At(r, c)
			if g.IsNoData(v) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func formatRange(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', 1, 64) + "-" + strconv.FormatFloat(hi, 'f', 1, 64)
}

func drawCross(img *image.NRGBA, x, y, arm int, c color.Color) {
	b := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if image.Pt(x+d, y).In(b) {
			img.Set(x+d, y, c)
		}
		if image.Pt(x, y+d).In(b) {
			img.Set(x, y+d, c)
		}
	}
}

// drawLabel draws text in a 3x5 pixel font over a filled background.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'.': {"000", "000", "000", "000", "010"},
		'-': {"000", "000", "111", "000", "000"},
	}

	b := img.Bounds()
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := image.Pt(x+dx, y+dy); p.In(b) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, px := range line {
				if p := image.Pt(cx+col, y+row); px == '1' && p.In(b) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
