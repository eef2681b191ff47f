// internal/geometry/geometry.go

// Package geometry converts between the three coordinate spaces of the
// wall designer: physical print size in centimeters, canvas pixels, and
// resolution-independent canvas fractions. Every function is pure; the
// durable representation of a placement is always the fractional one.
package geometry

import "errors"

// ReferenceWallWidthCM is the physical wall width the canvas is assumed
// to depict. The cm-to-pixel ratio of a canvas is canvasWidth divided
// by this constant.
const ReferenceWallWidthCM = 500.0

// ErrEmptyCanvas is returned when a conversion is attempted before the
// canvas has a measured, non-zero size.
var ErrEmptyCanvas = errors.New("geometry: canvas has no measured size")

// Size is a width/height pair. Units depend on context (cm or pixels).
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Canvas holds the live pixel dimensions of the designer canvas. The
// designer never measures the canvas itself; callers supply this.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c Canvas) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// PhysicalToPixels maps a physical print size to canvas pixels, applying
// the wall's cm-to-pixel ratio uniformly to both dimensions.
func PhysicalToPixels(cm Size, wallWidthPx float64) Size {
	ratio := wallWidthPx / ReferenceWallWidthCM
	return Size{
		Width:  cm.Width * ratio,
		Height: cm.Height * ratio,
	}
}

// PixelCenterToFraction converts a top-left pixel position plus size to
// the fractional coordinates of the item's center.
func PixelCenterToFraction(x, y, w, h float64, canvas Canvas) (fx, fy float64, err error) {
	if canvas.Empty() {
		return 0, 0, ErrEmptyCanvas
	}
	fx = (x + w/2) / canvas.Width
	fy = (y + h/2) / canvas.Height
	return fx, fy, nil
}

// FractionToPixelTopLeft is the inverse of PixelCenterToFraction: given
// the fractional center and a pixel size, it recovers the top-left
// pixel position.
func FractionToPixelTopLeft(fx, fy, w, h float64, canvas Canvas) (x, y float64) {
	x = fx*canvas.Width - w/2
	y = fy*canvas.Height - h/2
	return x, y
}
