package geo

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestTransformExtent_GeographicToMercator(t *testing.T) {
	got, err := TransformExtent(Extent{0, 0, 20, 20}, "EPSG:4326", "EPSG:3857")
	if err != nil {
		t.Fatalf("TransformExtent failed: %v", err)
	}

	if got[0] != 0 || got[1] != 0 {
		t.Errorf("Expected origin to stay at 0,0, got %v,%v", got[0], got[1])
	}

	wantX := 20 * HalfSize / 180
	if math.Abs(got[2]-wantX) > 1e-6 {
		t.Errorf("Expected maxX %v, got %v", wantX, got[2])
	}

	// 20 degrees north in web mercator
	if math.Abs(got[3]-2273030.926987689) > 1e-3 {
		t.Errorf("Expected maxY 2273030.93, got %v", got[3])
	}
}

func TestTransformExtent_RoundTrip(t *testing.T) {
	in := Extent{5, 5, 25, 25}

	merc, err := TransformExtent(in, "EPSG:4326", "EPSG:3857")
	if err != nil {
		t.Fatalf("forward transform failed: %v", err)
	}
	back, err := TransformExtent(merc, "EPSG:3857", "EPSG:4326")
	if err != nil {
		t.Fatalf("inverse transform failed: %v", err)
	}

	for i := range in {
		if math.Abs(in[i]-back[i]) > 1e-9 {
			t.Errorf("coordinate %d: expected %v, got %v", i, in[i], back[i])
		}
	}
}

func TestTransformExtent_ClampsPoles(t *testing.T) {
	got, err := TransformExtent(Extent{-180, -90, 180, 90}, "EPSG:4326", "EPSG:3857")
	if err != nil {
		t.Fatalf("TransformExtent failed: %v", err)
	}
	if got.Empty() {
		t.Fatalf("Expected finite extent, got %v", got)
	}
	if math.Abs(got[3]-HalfSize) > 1e-3 {
		t.Errorf("Expected maxY clamped to %v, got %v", HalfSize, got[3])
	}
}

func TestTransformExtent_Aliases(t *testing.T) {
	a, err := TransformExtent(Extent{1, 2, 3, 4}, "CRS:84", "EPSG:900913")
	if err != nil {
		t.Fatalf("alias transform failed: %v", err)
	}
	b, _ := TransformExtent(Extent{1, 2, 3, 4}, "EPSG:4326", "EPSG:3857")
	if !a.Equal(b) {
		t.Errorf("Expected alias result %v to equal %v", a, b)
	}

	same, err := TransformExtent(Extent{1, 2, 3, 4}, "EPSG:3857", "EPSG:102100")
	if err != nil {
		t.Fatalf("identity transform failed: %v", err)
	}
	if !same.Equal(Extent{1, 2, 3, 4}) {
		t.Errorf("Expected identity, got %v", same)
	}
}

func TestTransformExtent_Unsupported(t *testing.T) {
	px, err := NewPixelProjection(10, 10)
	if err != nil {
		t.Fatal(err)
	}

	_, err = TransformExtent(Extent{0, 0, 1, 1}, px.Code, "EPSG:3857")
	if !errors.Is(err, ErrUnsupportedTransform) {
		t.Errorf("Expected ErrUnsupportedTransform, got %v", err)
	}
}

func TestNewPixelProjection(t *testing.T) {
	p, err := NewPixelProjection(400, 300)
	if err != nil {
		t.Fatalf("NewPixelProjection failed: %v", err)
	}

	if p.Extent != (Extent{0, 0, 400, 300}) {
		t.Errorf("Expected extent [0 0 400 300], got %v", p.Extent)
	}
	if p.Units != Pixels {
		t.Errorf("Expected pixel units, got %s", p.Units)
	}
	if !strings.HasPrefix(p.Code, PixelCodePrefix) || IsBuiltin(p.Code) {
		t.Errorf("Unexpected code %q", p.Code)
	}
	if !p.IsPixel() {
		t.Error("Expected IsPixel to be true")
	}

	q, _ := NewPixelProjection(400, 300)
	if p.Code == q.Code {
		t.Errorf("Expected distinct codes, both were %q", p.Code)
	}
}

func TestNewPixelProjection_InvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		if _, err := NewPixelProjection(size[0], size[1]); !errors.Is(err, ErrInvalidPixelSize) {
			t.Errorf("size %v: expected ErrInvalidPixelSize, got %v", size, err)
		}
	}
}

func TestExtentEmpty(t *testing.T) {
	testCases := []struct {
		name   string
		extent Extent
		empty  bool
	}{
		{"regular", Extent{0, 0, 1, 1}, false},
		{"degenerate point", Extent{1, 1, 1, 1}, false},
		{"inverted x", Extent{2, 0, 1, 1}, true},
		{"inverted y", Extent{0, 2, 1, 1}, true},
		{"nan", Extent{math.NaN(), 0, 1, 1}, true},
		{"inf", Extent{0, 0, math.Inf(1), 1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.extent.Empty(); got != tc.empty {
				t.Errorf("Expected Empty() = %v, got %v", tc.empty, got)
			}
		})
	}
}

func TestExtentFromSlice(t *testing.T) {
	e, err := ExtentFromSlice([]float64{1, 2, 3, 4})
	if err != nil || e != (Extent{1, 2, 3, 4}) {
		t.Errorf("Unexpected result %v, %v", e, err)
	}
	if _, err := ExtentFromSlice([]float64{1, 2}); err == nil {
		t.Error("Expected error for short slice")
	}
}
