package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MaxLatitude is the latitude at which spherical mercator reaches HalfSize.
const MaxLatitude = 85.0511287798066

var ErrUnsupportedTransform = errors.New("unsupported projection transform")

func toMercator(p orb.Point) orb.Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, p[1]))
	return project.WGS84.ToMercator(orb.Point{p[0], lat})
}

func toWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

// Transformer returns the point projection between two projection codes.
func Transformer(from, to string) (orb.Projection, error) {
	src, ok := Lookup(from)
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %q", ErrUnsupportedTransform, from)
	}
	dst, ok := Lookup(to)
	if !ok {
		return nil, fmt.Errorf("%w: unknown destination %q", ErrUnsupportedTransform, to)
	}

	switch {
	case src.Code == dst.Code:
		return func(p orb.Point) orb.Point { return p }, nil
	case src.Code == EPSG4326.Code && dst.Code == EPSG3857.Code:
		return toMercator, nil
	case src.Code == EPSG3857.Code && dst.Code == EPSG4326.Code:
		return toWGS84, nil
	}

	return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedTransform, from, to)
}

// TransformExtent reprojects an extent by transforming its min and max
// corners. Both supported transforms are monotonic on each axis, so the
// corners stay the corners.
func TransformExtent(e Extent, from, to string) (Extent, error) {
	proj, err := Transformer(from, to)
	if err != nil {
		return Extent{}, err
	}

	lo := proj(orb.Point{e[0], e[1]})
	hi := proj(orb.Point{e[2], e[3]})

	return Extent{lo[0], lo[1], hi[0], hi[1]}, nil
}
