package services

import (
	"context"
	"errors"
	"image"
	"log"

	"image-giveaway/assets"
	"image-giveaway/imageproc"
)

// CollageComposer renders a user's progress: won prizes at full resolution,
// everything else as its teaser.
type CollageComposer struct {
	Assets assets.Store
}

func NewCollageComposer(store assets.Store) *CollageComposer {
	return &CollageComposer{Assets: store}
}

// Compose picks one tile per ref in allRefs order. Refs whose asset is missing
// are skipped; nil is returned when no tile is left.
func (c *CollageComposer) Compose(ctx context.Context, revealed map[string]bool, allRefs []string) (image.Image, error) {
	tiles := make([]image.Image, 0, len(allRefs))
	for _, ref := range allRefs {
		ns := assets.Teasers
		if revealed[ref] {
			ns = assets.Originals
		}
		img, err := assets.LoadImage(ctx, c.Assets, ns, ref)
		if errors.Is(err, assets.ErrAssetNotFound) {
			continue
		}
		if err != nil {
			log.Printf("[Collage] skipping %s/%s: %v", ns, ref, err)
			continue
		}
		tiles = append(tiles, img)
	}

	if len(tiles) == 0 {
		return nil, nil
	}
	return imageproc.Collage(tiles), nil
}
