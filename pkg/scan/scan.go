// Package scan extracts a suggested total from a receipt image using
// Tesseract OCR. Results are suggestions only; nothing here mutates
// expense records.
package scan

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/shopspring/decimal"
)

// ExtractAmount OCRs the receipt image at path and returns the best total
// candidate together with the raw token it was parsed from. A readable image
// with no recognizable amount returns (0, "", nil) rather than an error.
func ExtractAmount(path string) (decimal.Decimal, string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("open image: %w", err)
	}
	text, err := recognize(Preprocess(img))
	if err != nil {
		return decimal.Zero, "", err
	}
	amount, raw, ok := BestAmount(FindAmounts(text))
	if !ok {
		return decimal.Zero, "", nil
	}
	return amount, raw, nil
}

func recognize(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode preprocessed image: %w", err)
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage("eng"); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
