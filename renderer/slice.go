// Package renderer draws the density field for the interactive viewer.
// It shows one z-slice as a grayscale texture; the volume raycaster lives
// outside this repository and only needs the density handle.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/plume/volume"
)

// SliceRenderer uploads a z-slice of a scalar volume into a texture and
// draws it scaled to the window.
type SliceRenderer struct {
	texture rl.Texture2D
	pixels  []color.RGBA
	w, h    int

	initialized bool
}

// NewSliceRenderer creates a renderer for w*h slices.
func NewSliceRenderer(w, h int) *SliceRenderer {
	return &SliceRenderer{
		w: w, h: h,
		pixels: make([]color.RGBA, w*h),
	}
}

// Init creates the texture; must run after the raylib window exists.
func (r *SliceRenderer) Init() {
	if r.initialized {
		return
	}
	img := rl.GenImageColor(r.w, r.h, rl.Black)
	r.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	r.initialized = true
}

// Draw uploads the slice at depth z of the field and draws it filling the
// given screen rectangle. Values map through scale into [0,255] gray.
func (r *SliceRenderer) Draw(field *volume.Volume, z int, dest rl.Rectangle, scale float32) {
	if !r.initialized {
		r.Init()
	}
	if z < 0 {
		z = field.D / 2
	}
	if z >= field.D {
		z = field.D - 1
	}

	base := z * field.W * field.H
	for i := 0; i < field.W*field.H && i < len(r.pixels); i++ {
		v := field.Data[base+i] * scale
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		// Flip vertically: grid y grows upward, screen y downward.
		gy := i / field.W
		gx := i % field.W
		g := uint8(v * 255)
		r.pixels[(field.H-1-gy)*field.W+gx] = color.RGBA{R: g, G: g, B: g, A: 255}
	}
	rl.UpdateTexture(r.texture, r.pixels)

	src := rl.NewRectangle(0, 0, float32(r.w), float32(r.h))
	rl.DrawTexturePro(r.texture, src, dest, rl.NewVector2(0, 0), 0, rl.White)
}

// Unload frees the texture.
func (r *SliceRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.texture)
		r.initialized = false
	}
}
