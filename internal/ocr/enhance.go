package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// MaxDimension bounds the longer side of an enhanced image.
const MaxDimension = 3200

// Enhance prepares a scan for recognition: grayscale, contrast, sharpen,
// and downscale when larger than MaxDimension. The result is PNG encoded.
func Enhance(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("Enhance: decode image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("Enhance: encode image: %w", err)
	}
	return buf.Bytes(), nil
}
