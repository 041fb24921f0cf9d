package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// verifyDownload runs the client-side checks required before a completed
// download may be reported to clients: the expected size (if given) and
// expected SHA256 hash (if given) must both match.
func verifyDownload(path string, bytesWritten, expectedSize int64, expectedSHA256 string) error {
	if expectedSize > 0 && bytesWritten != expectedSize {
		return fmt.Errorf("size mismatch for %s: got %d bytes, expected %d", path, bytesWritten, expectedSize)
	}
	if expectedSHA256 == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, expectedSHA256) {
		return fmt.Errorf("sha256 mismatch for %s: got %s, expected %s", path, got, expectedSHA256)
	}
	return nil
}
