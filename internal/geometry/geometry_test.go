// internal/geometry/geometry_test.go
package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhysicalToPixels(t *testing.T) {
	// A 40x60cm print on a 1000px wide canvas: ratio 1000/500 = 2.
	px := PhysicalToPixels(Size{Width: 40, Height: 60}, 1000)
	assert.Equal(t, 80.0, px.Width)
	assert.Equal(t, 120.0, px.Height)
}

func TestPhysicalToPixelsRatioRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		cm := Size{Width: rng.Float64()*200 + 1, Height: rng.Float64()*200 + 1}
		wallWidth := rng.Float64()*3000 + 1

		px := PhysicalToPixels(cm, wallWidth)
		ratio := wallWidth / ReferenceWallWidthCM

		assert.InDelta(t, ratio, px.Width/cm.Width, 1e-9)
		assert.InDelta(t, ratio, px.Height/cm.Height, 1e-9)
	}
}

func TestPixelCenterToFraction(t *testing.T) {
	canvas := Canvas{Width: 1000, Height: 800}

	fx, fy, err := PixelCenterToFraction(460, 340, 80, 120, canvas)
	require.NoError(t, err)
	assert.Equal(t, 0.5, fx)
	assert.Equal(t, 0.5, fy)
}

func TestPixelCenterToFractionEmptyCanvas(t *testing.T) {
	_, _, err := PixelCenterToFraction(0, 0, 10, 10, Canvas{})
	assert.ErrorIs(t, err, ErrEmptyCanvas)

	_, _, err = PixelCenterToFraction(0, 0, 10, 10, Canvas{Width: 100})
	assert.ErrorIs(t, err, ErrEmptyCanvas)
}

func TestFractionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		canvas := Canvas{
			Width:  rng.Float64()*2000 + 1,
			Height: rng.Float64()*2000 + 1,
		}
		w := rng.Float64() * canvas.Width
		h := rng.Float64() * canvas.Height
		x := rng.Float64()*canvas.Width - w/2
		y := rng.Float64()*canvas.Height - h/2

		fx, fy, err := PixelCenterToFraction(x, y, w, h, canvas)
		require.NoError(t, err)

		gotX, gotY := FractionToPixelTopLeft(fx, fy, w, h, canvas)
		assert.InDelta(t, x, gotX, 1e-6)
		assert.InDelta(t, y, gotY, 1e-6)
	}
}

func TestFractionToPixelTopLeftCentered(t *testing.T) {
	x, y := FractionToPixelTopLeft(0.5, 0.5, 80, 120, Canvas{Width: 1000, Height: 800})
	assert.Equal(t, 460.0, x)
	assert.Equal(t, 340.0, y)
}

func TestCanvasEmpty(t *testing.T) {
	assert.True(t, Canvas{}.Empty())
	assert.True(t, Canvas{Width: math.SmallestNonzeroFloat64 * -1, Height: 10}.Empty())
	assert.False(t, Canvas{Width: 1, Height: 1}.Empty())
}
