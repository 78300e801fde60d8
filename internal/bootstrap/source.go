package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

// SourceKind tells how an image source is fetched
type SourceKind int

const (
	KindFile SourceKind = iota
	KindURL
	KindData
)

func (k SourceKind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindData:
		return "data"
	default:
		return "file"
	}
}

// Source is a reference to a loadable image: an http(s) URL, a data URL or a
// local file path.
type Source struct {
	Raw  string
	Kind SourceKind
}

// ParseSource classifies raw by its scheme
func ParseSource(raw string) Source {
	low := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(low, "http://"), strings.HasPrefix(low, "https://"):
		return Source{Raw: raw, Kind: KindURL}
	case strings.HasPrefix(low, "data:"):
		return Source{Raw: raw, Kind: KindData}
	case strings.HasPrefix(low, "file://"):
		return Source{Raw: raw[len("file://"):], Kind: KindFile}
	default:
		return Source{Raw: raw, Kind: KindFile}
	}
}

// String shortens data URLs so they can be logged
func (s Source) String() string {
	if s.Kind == KindData {
		if idx := strings.IndexByte(s.Raw, ','); idx != -1 {
			return s.Raw[:idx] + ",..."
		}
	}
	return s.Raw
}

// fetcher loads the raw bytes of a source
type fetcher struct {
	client    *http.Client
	userAgent string
}

func (f *fetcher) fetch(ctx context.Context, src Source) ([]byte, error) {
	switch src.Kind {
	case KindURL:
		return f.download(ctx, src.Raw)
	case KindData:
		return decodeDataURL(src.Raw)
	default:
		return readFile(ctx, src.Raw)
	}
}

func (f *fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnsupportedSource)
	}
	return os.ReadFile(path)
}

// decodeDataURL decodes data:[<mediatype>][;base64],<data>. Base64 payloads
// are percent-decoded first, the same as browsers do.
func decodeDataURL(raw string) ([]byte, error) {
	idx := strings.IndexByte(raw, ',')
	if idx == -1 {
		return nil, fmt.Errorf("%w: data URL without payload", ErrUnsupportedSource)
	}

	meta, payload := raw[:idx], raw[idx+1:]
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
		}
		// some encoders drop the padding
		if n := len(unescaped) % 4; n != 0 {
			unescaped += strings.Repeat("=", 4-n)
		}
		raw = meta + "," + unescaped
	}

	du, err := dataurl.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	return du.Data, nil
}
