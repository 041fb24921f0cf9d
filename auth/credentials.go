package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Credential is a username/password pair for one repository host, sent
// by the http/https transport as HTTP basic auth.
type Credential struct {
	Username string
	Password string
}

// CredentialStore maps a repository host to the credential the http/
// https download transport should present to it, loaded from an
// optional file narrowed from the authorized-keys-style format this
// package used to parse: one "<host> <username> <password>" line per
// private repository, since a download credential has no read/write
// permission distinction to carry.
type CredentialStore struct {
	byHost map[string]Credential
}

// LoadCredentialStore loads a credential file. An empty path returns an
// empty store rather than an error, since authentication is always
// optional.
func LoadCredentialStore(path string) (*CredentialStore, error) {
	store := &CredentialStore{byHost: make(map[string]Credential)}
	if path == "" {
		return store, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auth: opening credential file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			return nil, fmt.Errorf("auth: invalid format on line %d: expected \"<host> <username> <password>\"", lineNum)
		}
		host := parts[0]
		store.byHost[host] = Credential{Username: parts[1], Password: strings.Join(parts[2:], " ")}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("auth: reading credential file: %w", err)
	}
	return store, nil
}

// Lookup returns the credential registered for host, if any.
func (s *CredentialStore) Lookup(host string) (Credential, bool) {
	if s == nil {
		return Credential{}, false
	}
	c, ok := s.byHost[host]
	return c, ok
}
