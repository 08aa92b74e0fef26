package imageproc

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Layout returns the grid for n tiles: floor(sqrt(n)) columns and as many
// rows as needed to hold them all.
func Layout(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Floor(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// Collage tiles images row-major onto one canvas. Every tile is drawn at the
// size of the first one; cells past the last tile stay zero-filled.
// Returns nil when there is nothing to draw.
func Collage(tiles []image.Image) *image.NRGBA {
	if len(tiles) == 0 {
		return nil
	}

	tileW, tileH := tiles[0].Bounds().Dx(), tiles[0].Bounds().Dy()
	rows, cols := Layout(len(tiles))
	canvas := imaging.New(cols*tileW, rows*tileH, color.NRGBA{})

	for i, tile := range tiles {
		if b := tile.Bounds(); b.Dx() != tileW || b.Dy() != tileH {
			tile = imaging.Resize(tile, tileW, tileH, imaging.Lanczos)
		}
		row, col := i/cols, i%cols
		canvas = imaging.Paste(canvas, tile, image.Pt(col*tileW, row*tileH))
	}
	return canvas
}
