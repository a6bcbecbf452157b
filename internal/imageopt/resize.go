package imageopt

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// DownscaledDimensions fits width x height inside maxDimension on the longest
// side, keeping the aspect ratio. Each side stays at least 1.
func DownscaledDimensions(width, height, maxDimension int) (int, int) {
	longest := max(width, height)
	if longest <= maxDimension {
		return width, height
	}

	scale := float64(maxDimension) / float64(longest)
	return scaleSide(width, scale), scaleSide(height, scale)
}

func scaleSide(side int, factor float64) int {
	return max(1, int(math.Round(float64(side)*factor)))
}

// render draws src scaled to width x height. A non-nil background is painted
// first so transparent pixels end up on it.
func render(src image.Image, width, height int, background color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
