package bootstrap

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrEmptyImage        = errors.New("image has no pixels")
)

// ImageLoadError reports an image that failed, timed out or was cancelled
// before its load signal fired.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("image load failed for %s: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}
