package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/debcore/debcore/auth"
)

// HTTPMethod fetches http(s) URIs with the standard library's client,
// the most commonly used transport for archive mirrors. Credentials is
// optional; when set, a basic-auth header is added for any host it has
// a Credential for, reaching private repositories.
type HTTPMethod struct {
	Client      *http.Client
	Credentials *auth.CredentialStore
	scheme      string
}

// NewHTTPMethod returns a Method for the given scheme ("http" or
// "https"), sharing one *http.Client across calls.
func NewHTTPMethod(scheme string, client *http.Client) *HTTPMethod {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPMethod{Client: client, scheme: scheme}
}

func (m *HTTPMethod) Scheme() string { return m.scheme }

func (m *HTTPMethod) Fetch(ctx context.Context, uri, targetPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, fmt.Errorf("http: building request: %w", err)
	}
	if m.Credentials != nil {
		if u, err := url.Parse(uri); err == nil {
			if cred, ok := m.Credentials.Lookup(u.Host); ok {
				req.SetBasicAuth(cred.Username, cred.Password)
			}
		}
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("http: unexpected status %s", resp.Status)
	}

	f, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("http: creating %s: %w", targetPath, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return n, fmt.Errorf("http: writing %s: %w", targetPath, err)
	}
	return n, nil
}
