package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"qrforge/internal/pkg/metrics"
)

const (
	maxLogoBytes = 5 << 20
	// Backdrop diameter relative to the logo, for scanner contrast.
	backdropScale = 1.2
	// Logo never exceeds this share of the QR's smaller dimension.
	maxLogoPercent = 20
)

type LogoSpec struct {
	URL            string
	MaxSizePercent int
	Position       string // center, top-left, top-right, bottom-left, bottom-right
}

// Compositor embeds a fetched logo onto a rendered QR image.
type Compositor struct {
	client *http.Client
	proc   ImageProcessor
	log    zerolog.Logger
}

func NewCompositor(proc ImageProcessor, fetchTimeout time.Duration, log zerolog.Logger) *Compositor {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &Compositor{
		client: &http.Client{Timeout: fetchTimeout},
		proc:   proc,
		log:    log,
	}
}

// Embed composites the logo onto qrImage. A missing logo is acceptable, a
// blocked generation is not: every failure in this path is swallowed and the
// original image returned unchanged.
func (c *Compositor) Embed(ctx context.Context, qrImage []byte, spec LogoSpec) []byte {
	out, err := c.embed(ctx, qrImage, spec)
	if err != nil {
		metrics.LogoEmbedFailures.Inc()
		c.log.Warn().Err(err).Str("logo_url", spec.URL).Msg("logo embed failed, returning plain image")
		return qrImage
	}
	return out
}

func (c *Compositor) embed(ctx context.Context, qrImage []byte, spec LogoSpec) ([]byte, error) {
	logoBytes, err := c.fetch(ctx, spec.URL)
	if err != nil {
		return nil, err
	}

	base, err := c.proc.Decode(qrImage)
	if err != nil {
		return nil, fmt.Errorf("decode qr image: %w", err)
	}
	logo, err := c.proc.Decode(logoBytes)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	bounds := base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	pct := spec.MaxSizePercent
	if pct <= 0 || pct > maxLogoPercent {
		pct = maxLogoPercent
	}
	maxDim := min(w, h) * pct / 100
	if maxDim < 1 {
		return nil, fmt.Errorf("qr image too small for a logo: %dx%d", w, h)
	}

	lb := logo.Bounds()
	if lb.Dx() < 1 || lb.Dy() < 1 {
		return nil, fmt.Errorf("invalid logo dimensions %dx%d", lb.Dx(), lb.Dy())
	}
	tw, th := fitWithin(lb.Dx(), lb.Dy(), maxDim)
	resized := c.proc.Resize(logo, tw, th)

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(canvas, canvas.Bounds(), base, bounds.Min, stddraw.Src)

	at := anchor(spec.Position, w, h, tw, th)
	center := image.Point{X: at.X + tw/2, Y: at.Y + th/2}
	radius := int(float64(max(tw, th)) * backdropScale / 2)

	mask := &circleMask{center: center, radius: radius}
	stddraw.DrawMask(canvas, mask.Bounds(), image.NewUniform(color.White), image.Point{}, mask, mask.Bounds().Min, stddraw.Over)
	c.proc.Composite(canvas, resized, at)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Compositor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("no logo url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("logo fetch returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
}

// fitWithin scales (w, h) to fit a maxDim square preserving aspect ratio.
func fitWithin(w, h, maxDim int) (int, int) {
	ratio := float64(maxDim) / float64(max(w, h))
	if ratio > 1 {
		ratio = 1
	}
	return max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
}

func anchor(position string, w, h, tw, th int) image.Point {
	margin := min(w, h) / 20
	switch position {
	case "top-left":
		return image.Point{X: margin, Y: margin}
	case "top-right":
		return image.Point{X: w - tw - margin, Y: margin}
	case "bottom-left":
		return image.Point{X: margin, Y: h - th - margin}
	case "bottom-right":
		return image.Point{X: w - tw - margin, Y: h - th - margin}
	default: // center
		return image.Point{X: (w - tw) / 2, Y: (h - th) / 2}
	}
}

type circleMask struct {
	center image.Point
	radius int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.radius, c.center.Y-c.radius, c.center.X+c.radius, c.center.Y+c.radius)
}

func (c *circleMask) At(x, y int) color.Color {
	dx, dy := x-c.center.X, y-c.center.Y
	if dx*dx+dy*dy <= c.radius*c.radius {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
