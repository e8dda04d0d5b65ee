package render

import (
	"bytes"
	"errors"
	"image"
	stddraw "image/draw"

	_ "image/gif"  // logo decode support
	_ "image/jpeg" // logo decode support
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// ImageProcessor is the raster-manipulation capability the logo compositor
// depends on. Selected at construction time so tests can run without any
// image processing at all.
type ImageProcessor interface {
	Decode(data []byte) (image.Image, error)
	Resize(img image.Image, width, height int) image.Image
	Composite(dst stddraw.Image, src image.Image, at image.Point)
}

// StdProcessor is the production implementation.
type StdProcessor struct{}

func (StdProcessor) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func (StdProcessor) Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func (StdProcessor) Composite(dst stddraw.Image, src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	stddraw.Draw(dst, r, src, src.Bounds().Min, stddraw.Over)
}

var errProcessingDisabled = errors.New("image processing disabled")

// NoopProcessor refuses to decode, so every embed falls back to the plain QR
// image. Useful in tests and resource-constrained deployments.
type NoopProcessor struct{}

func (NoopProcessor) Decode([]byte) (image.Image, error) {
	return nil, errProcessingDisabled
}

func (NoopProcessor) Resize(img image.Image, _, _ int) image.Image {
	return img
}

func (NoopProcessor) Composite(stddraw.Image, image.Image, image.Point) {}
