package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// ContentType maps a decoder format name to its MIME type
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// dimensions reads the intrinsic size of an encoded image from its header.
// JPEGs whose EXIF orientation rotates them by 90 degrees report their
// displayed size.
func dimensions(ctx context.Context, data []byte) (width, height int, format string, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, "", err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image header: %w", err)
	}
	width, height = cfg.Width, cfg.Height

	if format == "jpeg" && transposed(orientation(data)) {
		width, height = height, width
	}

	if width <= 0 || height <= 0 {
		return 0, 0, format, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	return width, height, format, nil
}

// orientation returns the EXIF orientation tag, 1 when there is none
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// transposed reports whether an orientation swaps width and height
func transposed(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}
