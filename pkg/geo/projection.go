package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Units of a projection's coordinates
type Units string

const (
	Degrees Units = "degrees"
	Meters  Units = "m"
	Pixels  Units = "pixels"
)

// Half the width of the spherical mercator world, 2 * pi * 6378137 / 2
const HalfSize = 20037508.342789244

// PixelCodePrefix prefixes the code of every image pixel projection
const PixelCodePrefix = "custom-image:"

var (
	ErrProjectionCodeTaken = errors.New("projection code collides with a built-in projection")
	ErrInvalidPixelSize    = errors.New("pixel projection needs a positive width and height")
)

// Projection describes a coordinate reference system by code, units and
// validity extent.
type Projection struct {
	Code   string
	Units  Units
	Extent Extent
}

var (
	EPSG4326 = Projection{
		Code:   "EPSG:4326",
		Units:  Degrees,
		Extent: Extent{-180, -90, 180, 90},
	}
	EPSG3857 = Projection{
		Code:   "EPSG:3857",
		Units:  Meters,
		Extent: Extent{-HalfSize, -HalfSize, HalfSize, HalfSize},
	}
)

var builtins = map[string]Projection{
	"EPSG:4326":   EPSG4326,
	"CRS:84":      EPSG4326,
	"WGS84":       EPSG4326,
	"EPSG:3857":   EPSG3857,
	"EPSG:900913": EPSG3857,
	"EPSG:102100": EPSG3857,
	"EPSG:102113": EPSG3857,
}

// Lookup resolves a built-in projection code or alias
func Lookup(code string) (Projection, bool) {
	p, ok := builtins[strings.ToUpper(code)]
	return p, ok
}

// IsBuiltin reports whether code names one of the geographic projections
func IsBuiltin(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// NewPixelProjection builds a projection whose units are image pixels and
// whose extent is [0, 0, width, height]. Each call yields a distinct code.
func NewPixelProjection(width, height int) (Projection, error) {
	if width <= 0 || height <= 0 {
		return Projection{}, fmt.Errorf("%w: %dx%d", ErrInvalidPixelSize, width, height)
	}

	code := PixelCodePrefix + uuid.NewString()
	if IsBuiltin(code) {
		return Projection{}, fmt.Errorf("%w: %s", ErrProjectionCodeTaken, code)
	}

	return Projection{
		Code:   code,
		Units:  Pixels,
		Extent: Extent{0, 0, float64(width), float64(height)},
	}, nil
}

// IsPixel reports whether the projection was built by NewPixelProjection
func (p Projection) IsPixel() bool {
	return p.Units == Pixels && strings.HasPrefix(p.Code, PixelCodePrefix)
}
