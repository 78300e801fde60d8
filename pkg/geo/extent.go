package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Extent is a rectangle as [minX, minY, maxX, maxY].
type Extent [4]float64

// FromBound converts an orb bound into an extent
func FromBound(b orb.Bound) Extent {
	return Extent{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// Bound converts the extent back into an orb bound
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e[0], e[1]},
		Max: orb.Point{e[2], e[3]},
	}
}

func (e Extent) MinX() float64 { return e[0] }
func (e Extent) MinY() float64 { return e[1] }
func (e Extent) MaxX() float64 { return e[2] }
func (e Extent) MaxY() float64 { return e[3] }

func (e Extent) Width() float64  { return e[2] - e[0] }
func (e Extent) Height() float64 { return e[3] - e[1] }

// Empty reports whether the extent cannot describe a displayable area:
// inverted corners or any non-finite coordinate.
func (e Extent) Empty() bool {
	for _, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return e[0] > e[2] || e[1] > e[3]
}

// Equal compares two extents coordinate by coordinate
func (e Extent) Equal(o Extent) bool {
	return e == o
}

func (e Extent) String() string {
	return fmt.Sprintf("%.17g,%.17g,%.17g,%.17g", e[0], e[1], e[2], e[3])
}

// Slice returns the extent as a plain slice, the shape used on the wire.
func (e Extent) Slice() []float64 {
	return []float64{e[0], e[1], e[2], e[3]}
}

// ExtentFromSlice is the inverse of Slice.
func ExtentFromSlice(v []float64) (Extent, error) {
	if len(v) != 4 {
		return Extent{}, fmt.Errorf("extent must have 4 values, got %d", len(v))
	}
	return Extent{v[0], v[1], v[2], v[3]}, nil
}
