package bootstrap

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kiesman99/mapimage/internal/log"
	"github.com/kiesman99/mapimage/pkg/geo"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(width, height)); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestInitialize_DataURL(t *testing.T) {
	src := dataURL("image/png", encodePNG(t, 400, 300))

	proj, err := Initialize(context.Background(), src)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if proj.Extent != (geo.Extent{0, 0, 400, 300}) {
		t.Errorf("Expected extent [0 0 400 300], got %v", proj.Extent)
	}
	if !proj.IsPixel() || geo.IsBuiltin(proj.Code) {
		t.Errorf("Expected a pixel projection, got %+v", proj)
	}
}

func TestInitialize_Formats(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		encode func(buf *bytes.Buffer, img image.Image) error
	}{
		{"png", "png", func(buf *bytes.Buffer, img image.Image) error { return png.Encode(buf, img) }},
		{"jpeg", "jpeg", func(buf *bytes.Buffer, img image.Image) error { return jpeg.Encode(buf, img, nil) }},
		{"gif", "gif", func(buf *bytes.Buffer, img image.Image) error { return gif.Encode(buf, img, nil) }},
		{"bmp", "bmp", func(buf *bytes.Buffer, img image.Image) error { return bmp.Encode(buf, img) }},
		{"tiff", "tiff", func(buf *bytes.Buffer, img image.Image) error { return tiff.Encode(buf, img, nil) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.encode(&buf, testImage(37, 21)); err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}

			img, err := New(Options{}).Initialize(context.Background(), dataURL(ContentType(tc.format), buf.Bytes()))
			if err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}

			if img.Width != 37 || img.Height != 21 {
				t.Errorf("Expected 37x21, got %dx%d", img.Width, img.Height)
			}
			if img.Format != tc.format {
				t.Errorf("Expected format %s, got %s", tc.format, img.Format)
			}
			if img.ContentType != ContentType(tc.format) {
				t.Errorf("Unexpected content type %s", img.ContentType)
			}
		})
	}
}

func TestInitialize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(path, encodePNG(t, 64, 48), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := New(Options{}).Initialize(context.Background(), path)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if img.Source.Kind != KindFile {
		t.Errorf("Expected file source, got %s", img.Source.Kind)
	}
	if img.Projection.Extent != (geo.Extent{0, 0, 64, 48}) {
		t.Errorf("Unexpected extent %v", img.Projection.Extent)
	}
}

func TestInitialize_HTTP(t *testing.T) {
	data := encodePNG(t, 20, 10)
	var userAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer server.Close()

	img, err := New(Options{UserAgent: "mapimage-test"}).Initialize(context.Background(), server.URL+"/cat.png")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if img.Width != 20 || img.Height != 10 {
		t.Errorf("Expected 20x10, got %dx%d", img.Width, img.Height)
	}
	if !bytes.Equal(img.Data, data) {
		t.Error("Expected loaded bytes to match served bytes")
	}
	if userAgent != "mapimage-test" {
		t.Errorf("Expected User-Agent mapimage-test, got %q", userAgent)
	}
}

func TestInitialize_Failures(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	testCases := []struct {
		name string
		src  string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.png")},
		{"http 404", notFound.URL + "/missing.png"},
		{"not an image", dataURL("text/plain", []byte("hello"))},
		{"malformed data URL", "data:image/png;base64"},
		{"bad base64", "data:image/png;base64,!!!"},
		{"empty path", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(Options{Timeout: time.Second}).Initialize(context.Background(), tc.src)
			var loadErr *ImageLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Expected *ImageLoadError, got %v", err)
			}
			if loadErr.Err == nil {
				t.Error("Expected wrapped cause")
			}
		})
	}
}

func TestInitialize_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := New(Options{Timeout: 50 * time.Millisecond}).Initialize(context.Background(), server.URL+"/slow.png")

	var loadErr *ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *ImageLoadError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Initialize took %v, expected it to give up after the timeout", elapsed)
	}
}

func TestInitialize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Initialize(ctx, dataURL("image/png", encodePNG(t, 2, 2)))
	if err == nil {
		// the load may win the race against the cancelled context
		return
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFuture_WaitAfterResolve(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	<-f.Done()

	for i := 0; i < 2; i++ {
		v, err := f.Wait(context.Background())
		if err != nil || v != 42 {
			t.Errorf("Wait #%d: expected 42, got %v, %v", i, v, err)
		}
	}
}

func TestParseSource(t *testing.T) {
	testCases := []struct {
		raw  string
		kind SourceKind
		str  string
	}{
		{"https://example.com/cat.png", KindURL, "https://example.com/cat.png"},
		{"HTTP://example.com/cat.png", KindURL, "HTTP://example.com/cat.png"},
		{"data:image/png;base64,AAAA", KindData, "data:image/png;base64,..."},
		{"file:///tmp/cat.png", KindFile, "/tmp/cat.png"},
		{"FILE:///tmp/cat.png", KindFile, "/tmp/cat.png"},
		{"cat.png", KindFile, "cat.png"},
	}

	for _, tc := range testCases {
		src := ParseSource(tc.raw)
		if src.Kind != tc.kind {
			t.Errorf("%q: expected kind %s, got %s", tc.raw, tc.kind, src.Kind)
		}
		if src.String() != tc.str {
			t.Errorf("%q: expected %q, got %q", tc.raw, tc.str, src.String())
		}
	}
}

func TestDecodeDataURL_Plain(t *testing.T) {
	data, err := decodeDataURL("data:text/plain,hello%20world")
	if err != nil {
		t.Fatalf("decodeDataURL failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("Expected 'hello world', got %q", data)
	}
}

func TestDecodeDataURL_PercentEncodedBase64(t *testing.T) {
	// 0xfb 0xff encodes to "+/8="
	data, err := decodeDataURL("data:application/octet-stream;base64,%2B%2F8%3D")
	if err != nil {
		t.Fatalf("decodeDataURL failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0xfb, 0xff}) {
		t.Errorf("Expected fb ff, got % x", data)
	}

	data, err = decodeDataURL("data:application/octet-stream;base64,+/8")
	if err != nil {
		t.Fatalf("decodeDataURL without padding failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0xfb, 0xff}) {
		t.Errorf("Expected fb ff, got % x", data)
	}
}

func TestInitialize_PercentEncodedDataURL(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(encodePNG(t, 33, 17))
	escaped := strings.NewReplacer("+", "%2B", "/", "%2F", "=", "%3D").Replace(encoded)

	img, err := New(Options{}).Initialize(context.Background(), "data:image/png;base64,"+escaped)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if img.Width != 33 || img.Height != 17 {
		t.Errorf("Expected 33x17, got %dx%d", img.Width, img.Height)
	}
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(width, height), nil); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	return buf.Bytes()
}

// withOrientation inserts an APP1 segment carrying only the EXIF orientation
// tag right after the SOI marker.
func withOrientation(data []byte, orientation uint16) []byte {
	tiffHeader := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // big endian, IFD0 at 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, // orientation, SHORT, count 1
		byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiffHeader...)
	length := len(payload) + 2

	out := append([]byte{}, data[:2]...)
	out = append(out, 0xff, 0xe1, byte(length>>8), byte(length))
	out = append(out, payload...)
	return append(out, data[2:]...)
}

func TestDimensions_EXIFOrientation(t *testing.T) {
	testCases := []struct {
		orientation   uint16
		width, height int
	}{
		{1, 40, 30},
		{3, 40, 30},
		{5, 30, 40},
		{6, 30, 40},
		{8, 30, 40},
	}

	base := encodeJPEG(t, 40, 30)
	for _, tc := range testCases {
		width, height, format, err := dimensions(context.Background(), withOrientation(base, tc.orientation))
		if err != nil {
			t.Fatalf("orientation %d: dimensions failed: %v", tc.orientation, err)
		}
		if format != "jpeg" {
			t.Errorf("orientation %d: expected jpeg, got %s", tc.orientation, format)
		}
		if width != tc.width || height != tc.height {
			t.Errorf("orientation %d: expected %dx%d, got %dx%d", tc.orientation, tc.width, tc.height, width, height)
		}
	}
}

func TestDimensions_ReadsHeaderOnly(t *testing.T) {
	// a 16x16 JPEG whose frame header claims 8000x8000; decoding the
	// pixels would fail on the missing scan data
	data := encodeJPEG(t, 16, 16)
	sof := bytes.Index(data, []byte{0xff, 0xc0})
	if sof == -1 {
		t.Fatal("No SOF0 marker in encoded JPEG")
	}
	data[sof+5], data[sof+6] = 0x1f, 0x40
	data[sof+7], data[sof+8] = 0x1f, 0x40

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	width, height, _, err := dimensions(context.Background(), data)

	runtime.ReadMemStats(&after)
	if err != nil {
		t.Fatalf("dimensions failed: %v", err)
	}
	if width != 8000 || height != 8000 {
		t.Errorf("Expected 8000x8000, got %dx%d", width, height)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 4<<20 {
		t.Errorf("Expected a header read, allocated %d bytes", allocated)
	}
}

func TestLoad_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Load(ctx, dataURL("image/jpeg", encodeJPEG(t, 8, 8))).Wait(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected the background load to stop with context.Canceled, got %v", err)
	}
}

func TestInitialize_FailureLoggedAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log.Set(zap.New(core))
	t.Cleanup(func() { log.Set(zap.NewNop()) })

	if _, err := New(Options{}).Initialize(context.Background(), "data:image/png;base64,!!!"); err == nil {
		t.Fatal("Expected load error")
	}

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len() + logs.FilterLevelExact(zapcore.WarnLevel).Len(); n != 0 {
		t.Errorf("Expected the failure to be left to the caller, got %d warn/error entries", n)
	}
	if logs.FilterMessage("image load failed").Len() != 1 {
		t.Error("Expected one debug entry for the failure")
	}
}
