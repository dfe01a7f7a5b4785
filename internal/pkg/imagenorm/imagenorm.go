// Package imagenorm prepares receipt photos for text extraction: decode,
// honor the EXIF orientation, drop color and re-encode as JPEG.
package imagenorm

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/rwcarlsen/goexif/exif"
)

const jpegQuality = 85

// Normalize re-encodes a photo as a grayscale JPEG. Color carries no
// signal for the extraction model and the smaller payload uploads faster.
// Callers treat a failure here as non-fatal and send the original bytes
// instead.
func Normalize(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = applyOrientation(img, data)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Grayscale(img), imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode grayscale JPEG: %w", err)
	}

	log.Debugf("[ImageNorm] Re-encoded %d input bytes as %d byte grayscale JPEG", len(data), buf.Len())
	return buf.Bytes(), nil
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	// The stdlib decoders behind imaging don't cover WebP uploads.
	if isWebP(data) {
		if webpImg, webpErr := webp.Decode(bytes.NewReader(data), &decoder.Options{}); webpErr == nil {
			return webpImg, nil
		}
	}
	return nil, err
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

// applyOrientation bakes the EXIF orientation into the pixels. The
// re-encoded JPEG carries no EXIF block, so an unrotated image would
// otherwise reach the extraction model sideways.
func applyOrientation(img image.Image, raw []byte) image.Image {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
