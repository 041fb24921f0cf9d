package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
)

// FileMethod fetches file:// URIs by copying from the local filesystem,
// used for cdrom/local-mirror style repository sources.
type FileMethod struct{}

func (FileMethod) Scheme() string { return "file" }

func (FileMethod) Fetch(ctx context.Context, uri, targetPath string) (int64, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return 0, fmt.Errorf("file: parsing uri %q: %w", uri, err)
	}
	src, err := os.Open(u.Path)
	if err != nil {
		return 0, fmt.Errorf("file: opening %s: %w", u.Path, err)
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("file: creating %s: %w", targetPath, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return n, fmt.Errorf("file: copying to %s: %w", targetPath, err)
	}
	return n, nil
}
