// Package imageproc holds the pure image transforms behind the game:
// the teaser shown during a reveal and the progress collage.
package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

const (
	// imaging sizes its Gaussian window as 2*ceil(3*sigma)+1 taps, so
	// 2.33 yields the 15x15 kernel.
	blurSigma = 2.33
	// TeaserGrid is the side of the coarse grid the teaser is reduced to.
	TeaserGrid = 30
)

// Obscure returns a blocky, low-detail version of src with the same
// dimensions: blur, shrink to a 30x30 grid, then blow back up with
// nearest-neighbour sampling. The result cannot be turned back into src.
func Obscure(src image.Image) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return imaging.Clone(src)
	}

	blurred := imaging.Blur(src, blurSigma)
	small := imaging.Resize(blurred, TeaserGrid, TeaserGrid, imaging.NearestNeighbor)
	return imaging.Resize(small, w, h, imaging.NearestNeighbor)
}
