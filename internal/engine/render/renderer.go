package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// QuietZoneModules is the blank margin drawn around the symbol, in modules.
const QuietZoneModules = 2

type Options struct {
	Size       int    // output edge length in pixels
	Level      string // L, M, Q, H
	Format     string // png, svg
	Foreground string // #rrggbb
	Background string // #rrggbb
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces image bytes for the given content. PNG output is a square
// of exactly opts.Size pixels; SVG output scales freely and uses opts.Size as
// the nominal width/height.
func (r *Renderer) Render(content string, opts Options) ([]byte, error) {
	if content == "" {
		return nil, errors.New("empty content")
	}

	size := opts.Size
	if size == 0 {
		size = 512
	}
	if size < 128 || size > 2048 {
		return nil, fmt.Errorf("invalid size %d: must be between 128 and 2048", size)
	}

	qr, err := qrcode.New(content, recoveryLevel(opts.Level))
	if err != nil {
		return nil, err
	}
	// The quiet zone is drawn here, not by the library.
	qr.DisableBorder = true
	grid := qr.Bitmap()

	switch opts.Format {
	case "", "png":
		return renderPNG(grid, size, opts)
	case "svg":
		return renderSVG(grid, size, opts)
	default:
		return nil, fmt.Errorf("unsupported format %q", opts.Format)
	}
}

func renderPNG(grid [][]bool, size int, opts Options) ([]byte, error) {
	fg, err := parseHexColor(opts.Foreground, color.Black)
	if err != nil {
		return nil, err
	}
	bg, err := parseHexColor(opts.Background, color.White)
	if err != nil {
		return nil, err
	}

	total := len(grid) + 2*QuietZoneModules
	scale := size / total
	if scale < 1 {
		scale = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// Center the symbol when size is not an exact multiple of the grid.
	offset := (size - total*scale) / 2
	dark := image.NewUniform(fg)
	for y, row := range grid {
		for x, set := range row {
			if !set {
				continue
			}
			px := offset + (x+QuietZoneModules)*scale
			py := offset + (y+QuietZoneModules)*scale
			draw.Draw(img, image.Rect(px, py, px+scale, py+scale), dark, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch level {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string, fallback color.Color) (color.Color, error) {
	if s == "" {
		return fallback, nil
	}

	var r, g, b uint8
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b)
		r *= 17
		g *= 17
		b *= 17
	default:
		err = fmt.Errorf("invalid color %q", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
