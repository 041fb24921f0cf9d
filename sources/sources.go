// Package sources parses a sources.list-style file into the repository
// entries an update run fetches indexes from: one "deb <uri> <dist>
// <components...>" line per binary repository, the same shape apt has
// used since its earliest releases. It never reaches into cache.Cache
// itself; callers turn each Entry into a cache.Repository once its
// Release file has been fetched and parsed.
package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one configured repository line.
type Entry struct {
	Type         string // "deb" or "deb-src"
	URI          string
	Distribution string
	Components   []string
}

// Load reads every "deb"/"deb-src" line out of path, skipping blank
// lines and "#"-comments, in file order (callers rely on that order for
// Repository.Index and for the order indexes are added to the cache,
// which decides preferred-version ties).
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sources: opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads entries from r, for callers that already have the file
// content open or in memory.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("sources: line %d: expected \"deb <uri> <distribution> [components...]\"", lineNum)
		}
		switch fields[0] {
		case "deb", "deb-src":
		default:
			return nil, fmt.Errorf("sources: line %d: unknown entry type %q", lineNum, fields[0])
		}
		entries = append(entries, Entry{
			Type:         fields[0],
			URI:          fields[1],
			Distribution: fields[2],
			Components:   fields[3:],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sources: reading: %w", err)
	}
	return entries, nil
}

// IndexURI builds the URI an index file (Release, or a
// "<component>/binary-<arch>/Packages<ext>" path) is fetched from for
// one entry.
func (e Entry) IndexURI(relPath string) string {
	return strings.TrimRight(e.URI, "/") + "/dists/" + e.Distribution + "/" + relPath
}
