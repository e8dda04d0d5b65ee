package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrImage(t *testing.T) []byte {
	t.Helper()
	data, err := NewRenderer().Render("https://example.com/", Options{Size: 512, Level: "H"})
	require.NoError(t, err)
	return data
}

func logoPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func logoServer(t *testing.T, body []byte, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedCompositesLogo(t *testing.T) {
	srv := logoServer(t, logoPNG(t, 300, 300), http.StatusOK)
	c := NewCompositor(StdProcessor{}, time.Second, zerolog.Nop())
	base := qrImage(t)

	out := c.Embed(context.Background(), base, LogoSpec{URL: srv.URL, Position: "center"})

	require.NotEqual(t, base, out, "embed should modify the image")
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())

	// The logo fill shows up at the center of the composited image.
	r, _, _, _ := img.At(256, 256).RGBA()
	assert.Greater(t, r>>8, uint32(150), "center pixel should carry the logo color")
}

func TestEmbedFailuresReturnOriginal(t *testing.T) {
	base := qrImage(t)
	ctx := context.Background()

	tests := []struct {
		name string
		spec func(t *testing.T) LogoSpec
	}{
		{
			name: "unreachable url",
			spec: func(*testing.T) LogoSpec {
				return LogoSpec{URL: "http://127.0.0.1:1/logo.png"}
			},
		},
		{
			name: "empty url",
			spec: func(*testing.T) LogoSpec { return LogoSpec{} },
		},
		{
			name: "http error status",
			spec: func(t *testing.T) LogoSpec {
				return LogoSpec{URL: logoServer(t, nil, http.StatusNotFound).URL}
			},
		},
		{
			name: "body is not an image",
			spec: func(t *testing.T) LogoSpec {
				return LogoSpec{URL: logoServer(t, []byte("<html>nope</html>"), http.StatusOK).URL}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompositor(StdProcessor{}, 200*time.Millisecond, zerolog.Nop())
			out := c.Embed(ctx, base, tt.spec(t))
			assert.Equal(t, base, out, "failed embed must return the original bytes")
		})
	}
}

func TestEmbedNoopProcessorFallsBack(t *testing.T) {
	srv := logoServer(t, logoPNG(t, 100, 100), http.StatusOK)
	c := NewCompositor(NoopProcessor{}, time.Second, zerolog.Nop())
	base := qrImage(t)

	out := c.Embed(context.Background(), base, LogoSpec{URL: srv.URL})
	assert.Equal(t, base, out)
}

func TestEmbedHonorsContext(t *testing.T) {
	srv := logoServer(t, logoPNG(t, 100, 100), http.StatusOK)
	c := NewCompositor(StdProcessor{}, time.Second, zerolog.Nop())
	base := qrImage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Embed(ctx, base, LogoSpec{URL: srv.URL})
	assert.Equal(t, base, out, "cancelled fetch must fall back to the original")
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxDim int
		wantW, wantH int
	}{
		{100, 100, 50, 50, 50},
		{200, 100, 50, 50, 25},
		{100, 200, 50, 25, 50},
		{30, 30, 50, 30, 30}, // never upscales
		{1000, 10, 100, 100, 1},
	}

	for _, tt := range tests {
		gotW, gotH := fitWithin(tt.w, tt.h, tt.maxDim)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("fitWithin(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.maxDim, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestAnchorPositions(t *testing.T) {
	const w, h, tw, th = 500, 500, 100, 100
	margin := 25

	tests := []struct {
		position string
		want     image.Point
	}{
		{"center", image.Point{X: 200, Y: 200}},
		{"top-left", image.Point{X: margin, Y: margin}},
		{"top-right", image.Point{X: w - tw - margin, Y: margin}},
		{"bottom-left", image.Point{X: margin, Y: h - th - margin}},
		{"bottom-right", image.Point{X: w - tw - margin, Y: h - th - margin}},
		{"unknown", image.Point{X: 200, Y: 200}},
	}

	for _, tt := range tests {
		if got := anchor(tt.position, w, h, tw, th); got != tt.want {
			t.Errorf("anchor(%q) = %v, want %v", tt.position, got, tt.want)
		}
	}
}
