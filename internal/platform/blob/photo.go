package blob

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

var ErrInvalidImage = errors.New("invalid image")

// ProcessPhoto decodes a JPEG/PNG/GIF upload, fits it inside maxPixels on both
// sides and re-encodes it as JPEG.
func ProcessPhoto(r io.Reader, maxPixels int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrInvalidImage
	}
	if maxPixels > 0 && (bounds.Dx() > maxPixels || bounds.Dy() > maxPixels) {
		img = imaging.Fit(img, maxPixels, maxPixels, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
