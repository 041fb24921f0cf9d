package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"golang.org/x/crypto/ssh"
)

// SSHMethod fetches ssh:// URIs by running "cat <path>" over an SSH
// session, matching the lightweight local-network "copy over ssh"
// transport real Debian-family mirrors support alongside http/https.
type SSHMethod struct {
	Config *ssh.ClientConfig
}

func (SSHMethod) Scheme() string { return "ssh" }

func (m SSHMethod) Fetch(ctx context.Context, uri, targetPath string) (int64, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return 0, fmt.Errorf("ssh: parsing uri %q: %w", uri, err)
	}
	addr := u.Host
	if u.Port() == "" {
		addr = u.Hostname() + ":22"
	}

	client, err := ssh.Dial("tcp", addr, m.Config)
	if err != nil {
		return 0, fmt.Errorf("ssh: dialing %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return 0, fmt.Errorf("ssh: opening session to %s: %w", addr, err)
	}
	defer session.Close()

	out, err := session.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("ssh: stdout pipe: %w", err)
	}

	f, err := os.Create(targetPath)
	if err != nil {
		return 0, fmt.Errorf("ssh: creating %s: %w", targetPath, err)
	}
	defer f.Close()

	if err := session.Start(fmt.Sprintf("cat %q", u.Path)); err != nil {
		return 0, fmt.Errorf("ssh: starting remote cat: %w", err)
	}

	n, copyErr := io.Copy(f, out)
	if err := session.Wait(); err != nil {
		return n, fmt.Errorf("ssh: remote command failed: %w", err)
	}
	if copyErr != nil {
		return n, fmt.Errorf("ssh: copying output: %w", copyErr)
	}
	return n, nil
}
