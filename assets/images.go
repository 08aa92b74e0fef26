package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// LoadImage decodes the asset stored under ref.
func LoadImage(ctx context.Context, store Store, ns Namespace, ref string) (image.Image, error) {
	rc, err := store.Open(ctx, ns, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", ns, ref, err)
	}
	return img, nil
}

// SaveImage encodes img in the format implied by the ref's extension,
// falling back to JPEG.
func SaveImage(ctx context.Context, store Store, ns Namespace, ref string, img image.Image) error {
	format, err := imaging.FormatFromFilename(ref)
	if err != nil {
		format = imaging.JPEG
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, format); err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", ns, ref, err)
	}
	return store.Save(ctx, ns, ref, buf, ContentType(format))
}

// EncodeJPEG is used for images that leave the service (collages, events).
func EncodeJPEG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ContentType(format imaging.Format) string {
	switch format {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
