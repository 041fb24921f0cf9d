// Package metadata implements the Fetcher's metadata-update phase:
// Release/InRelease verification, compressed index selection and
// download, and diff-patch chain application.
package metadata

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compression names a supported index-file compression, used when
// deciding which of several index variants to download. The preference
// order is compressionPriority, not the order of these constants.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

// compressionPriority is consulted by PreferredVariant to pick the best
// available variant; lower index means more preferred.
var compressionPriority = []Compression{CompressionXZ, CompressionBzip2, CompressionGzip, CompressionNone}

// Extension returns the filename suffix for a compression kind ("" for
// CompressionNone).
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionBzip2:
		return ".bz2"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// DetectFromFilename maps a filename's suffix to a Compression.
func DetectFromFilename(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(name, ".bz2"):
		return CompressionBzip2
	case strings.HasSuffix(name, ".xz"):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// Decompress wraps r in the decoder matching c. The gzip/bzip2 cases use
// the standard library directly, matching how Debian-archive clients in
// the wild handle these two formats; xz requires a real decoder since the
// standard library has none.
func Decompress(c Compression, r io.Reader) (io.Reader, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return xr, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}

// PreferredVariant picks the most preferred Compression among the ones
// actually offered (by filename) in a Release file's hash listing.
func PreferredVariant(available []string) (string, Compression) {
	byCompression := make(map[Compression]string, len(available))
	for _, name := range available {
		byCompression[DetectFromFilename(name)] = name
	}
	for _, c := range compressionPriority {
		if name, ok := byCompression[c]; ok {
			return name, c
		}
	}
	return "", CompressionNone
}
