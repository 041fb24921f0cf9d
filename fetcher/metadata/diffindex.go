package metadata

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PatchEntry is one line of a diff-index's SHA1-History or SHA1-Patches
// field: "<sha1> <size> <patch-name>".
type PatchEntry struct {
	SHA1 string
	Size int64
	Name string
}

// DiffIndex is the parsed content of a Packages.diff/Index file: the
// chain of patches that can bring a locally cached index up to date
// without re-downloading the whole file.
type DiffIndex struct {
	SHA1Current string
	History     []PatchEntry
	Patches     []PatchEntry
}

// ParseDiffIndex parses a diff-index control file.
func ParseDiffIndex(r io.Reader) (DiffIndex, error) {
	var idx DiffIndex
	sc := bufio.NewScanner(r)
	var section string
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			switch {
			case strings.HasPrefix(trimmed, "SHA1-Current:"):
				// "SHA1-Current: <sha1> <size>": keep only the hash.
				if f := strings.Fields(strings.TrimPrefix(trimmed, "SHA1-Current:")); len(f) > 0 {
					idx.SHA1Current = f[0]
				}
				section = ""
			case trimmed == "SHA1-History:":
				section = "history"
			case trimmed == "SHA1-Patches:":
				section = "patches"
			default:
				section = ""
			}
			continue
		}
		entry, err := parsePatchEntryLine(trimmed)
		if err != nil {
			return DiffIndex{}, fmt.Errorf("diff index: %w", err)
		}
		switch section {
		case "history":
			idx.History = append(idx.History, entry)
		case "patches":
			idx.Patches = append(idx.Patches, entry)
		}
	}
	if err := sc.Err(); err != nil {
		return DiffIndex{}, fmt.Errorf("diff index: %w", err)
	}
	return idx, nil
}

func parsePatchEntryLine(line string) (PatchEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return PatchEntry{}, fmt.Errorf("malformed patch entry line %q", line)
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return PatchEntry{}, fmt.Errorf("malformed patch entry size %q: %w", fields[1], err)
	}
	return PatchEntry{SHA1: fields[0], Size: size, Name: fields[2]}, nil
}

// PlanChain returns the ordered list of patch names needed to bring a
// locally cached index whose current hash is localSHA1 up to idx's
// SHA1Current, by walking the History list to find where the local copy
// sits in the chain. It returns (nil, false) if localSHA1 is not found in
// the history at all, meaning a full re-download is required.
func PlanChain(idx DiffIndex, localSHA1 string) ([]string, bool) {
	if localSHA1 == idx.SHA1Current {
		return nil, true
	}
	start := -1
	for i, h := range idx.History {
		if h.SHA1 == localSHA1 {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, false
	}
	var names []string
	for i := start; i < len(idx.Patches); i++ {
		names = append(names, idx.Patches[i].Name)
	}
	return names, true
}

// VerifySHA1 reports whether data hashes to the given hex-encoded SHA1
// digest, used after applying each patch in the chain before trusting
// the result and moving on to the next one.
func VerifySHA1(data []byte, wantHex string) bool {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:]) == strings.ToLower(wantHex)
}
