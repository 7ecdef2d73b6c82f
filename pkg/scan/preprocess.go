package scan

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess normalizes a receipt photo for OCR: grayscale, upscale small
// scans, then contrast and sharpening to separate print from paper.
func Preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	if out.Bounds().Dx() < 1000 {
		out = imaging.Resize(out, out.Bounds().Dx()*2, 0, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 1.0)
	return out
}
