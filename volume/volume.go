// Package volume provides the 3-D scalar and vector field storage the
// simulation operates on. Fields are dense W*H*D float32 grids with
// clamped boundary extension; sampling outside the grid reads the nearest
// in-range cell.
package volume

import "fmt"

// Volume is a dense 3-D scalar field. Data is laid out x-fastest:
// index = x + W*(y + H*z).
type Volume struct {
	W, H, D int
	// ByteWidth records the storage width the field was budgeted for
	// (2 = half, 4 = float). Values are held as float32 either way; the
	// width only participates in allocation accounting.
	ByteWidth int

	Data []float32
}

// NewVolume allocates a cleared W*H*D field.
func NewVolume(w, h, d, byteWidth int) (*Volume, error) {
	if w <= 0 || h <= 0 || d <= 0 {
		return nil, fmt.Errorf("volume: invalid dimensions %dx%dx%d", w, h, d)
	}
	if byteWidth != 2 && byteWidth != 4 {
		return nil, fmt.Errorf("volume: unsupported byte width %d", byteWidth)
	}
	return &Volume{
		W: w, H: h, D: d,
		ByteWidth: byteWidth,
		Data:      make([]float32, w*h*d),
	}, nil
}

// MustNewVolume is NewVolume for callers with already-validated dimensions.
func MustNewVolume(w, h, d, byteWidth int) *Volume {
	v, err := NewVolume(w, h, d, byteWidth)
	if err != nil {
		panic(err)
	}
	return v
}

// Len returns the number of cells.
func (v *Volume) Len() int { return v.W * v.H * v.D }

// Idx returns the flat index of an in-range cell.
func (v *Volume) Idx(x, y, z int) int { return x + v.W*(y+v.H*z) }

// clampInt clamps i into [0, n-1].
func clampInt(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// At reads the cell at (x,y,z), clamping each coordinate into range.
// Any integer coordinate in [-1, size] therefore reads a defined value.
func (v *Volume) At(x, y, z int) float32 {
	return v.Data[clampInt(x, v.W)+v.W*(clampInt(y, v.H)+v.H*clampInt(z, v.D))]
}

// Set writes the cell at (x,y,z). Coordinates must be in range.
func (v *Volume) Set(x, y, z int, val float32) {
	v.Data[v.Idx(x, y, z)] = val
}

// Sample reads the field at a continuous cell-centre coordinate with
// trilinear interpolation. Corner fetches clamp to the grid.
func (v *Volume) Sample(x, y, z float32) float32 {
	x -= 0.5
	y -= 0.5
	z -= 0.5
	x0 := floorInt(x)
	y0 := floorInt(y)
	z0 := floorInt(z)
	fx := x - float32(x0)
	fy := y - float32(y0)
	fz := z - float32(z0)

	c000 := v.At(x0, y0, z0)
	c100 := v.At(x0+1, y0, z0)
	c010 := v.At(x0, y0+1, z0)
	c110 := v.At(x0+1, y0+1, z0)
	c001 := v.At(x0, y0, z0+1)
	c101 := v.At(x0+1, y0, z0+1)
	c011 := v.At(x0, y0+1, z0+1)
	c111 := v.At(x0+1, y0+1, z0+1)

	c00 := c000 + (c100-c000)*fx
	c10 := c010 + (c110-c010)*fx
	c01 := c001 + (c101-c001)*fx
	c11 := c011 + (c111-c011)*fx

	c0 := c00 + (c10-c00)*fy
	c1 := c01 + (c11-c01)*fy

	return c0 + (c1-c0)*fz
}

func floorInt(f float32) int {
	i := int(f)
	if f < float32(i) {
		i--
	}
	return i
}

// Clear zeroes the field.
func (v *Volume) Clear() {
	for i := range v.Data {
		v.Data[i] = 0
	}
}

// Fill sets every cell to val.
func (v *Volume) Fill(val float32) {
	for i := range v.Data {
		v.Data[i] = val
	}
}

// CopyFrom copies another field of identical dimensions.
func (v *Volume) CopyFrom(src *Volume) {
	if v.W != src.W || v.H != src.H || v.D != src.D {
		panic(fmt.Sprintf("volume: copy dimension mismatch %dx%dx%d vs %dx%dx%d",
			v.W, v.H, v.D, src.W, src.H, src.D))
	}
	copy(v.Data, src.Data)
}

// SameSize reports whether two fields share dimensions.
func (v *Volume) SameSize(o *Volume) bool {
	return v.W == o.W && v.H == o.H && v.D == o.D
}

// VectorVolume is a triple of scalar fields holding the three components
// of a vector field. On a staggered grid the kernels read index (i,j,k)
// as the cell's minus faces: X on (i-1/2,j,k), Y on (i,j-1/2,k), Z on
// (i,j,k-1/2); collocated, all share cell centres. The interpretation
// belongs to the kernels, not the storage.
type VectorVolume struct {
	X, Y, Z *Volume
}

// NewVectorVolume allocates three cleared component fields.
func NewVectorVolume(w, h, d, byteWidth int) (*VectorVolume, error) {
	x, err := NewVolume(w, h, d, byteWidth)
	if err != nil {
		return nil, err
	}
	y, err := NewVolume(w, h, d, byteWidth)
	if err != nil {
		return nil, err
	}
	z, err := NewVolume(w, h, d, byteWidth)
	if err != nil {
		return nil, err
	}
	return &VectorVolume{X: x, Y: y, Z: z}, nil
}

// Clear zeroes all three components.
func (v *VectorVolume) Clear() {
	v.X.Clear()
	v.Y.Clear()
	v.Z.Clear()
}

// Component returns component i (0=X, 1=Y, 2=Z).
func (v *VectorVolume) Component(i int) *Volume {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("volume: component index %d out of range", i))
}

// Swap exchanges the component fields of two vector volumes.
func (v *VectorVolume) Swap(o *VectorVolume) {
	v.X, o.X = o.X, v.X
	v.Y, o.Y = o.Y, v.Y
	v.Z, o.Z = o.Z, v.Z
}
