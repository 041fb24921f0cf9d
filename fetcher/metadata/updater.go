package metadata

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/errs"
)

// IndexFileHash is one entry of a Release file's SHA256 (or legacy MD5Sum/
// SHA1) field: a hash, size, and the relative path it describes.
type IndexFileHash struct {
	Hash string
	Size int64
	Path string
}

// ParseRelease parses a Release/InRelease file's top-level fields and its
// file-hash listing.
func ParseRelease(r *strings.Reader) (cache.ReleaseInfo, map[string][]IndexFileHash, error) {
	var info cache.ReleaseInfo
	hashes := make(map[string][]IndexFileHash)

	sc := bufio.NewScanner(r)
	var section string
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if section == "" {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 3 {
				continue
			}
			size, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				continue
			}
			hashes[section] = append(hashes[section], IndexFileHash{Hash: fields[0], Size: size, Path: fields[2]})
			continue
		}

		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		field := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		switch field {
		case "Origin":
			info.Origin = value
		case "Label":
			info.Label = value
		case "Suite":
			info.Suite = value
		case "Codename":
			info.Codename = value
		case "Version":
			info.Version = value
		case "Components":
			info.Components = strings.Fields(value)
		case "Architectures":
			info.Architectures = strings.Fields(value)
		case "Date":
			if t, err := time.Parse(time.RFC1123, value); err == nil {
				info.Date = t
			}
			section = ""
		case "Valid-Until":
			if t, err := time.Parse(time.RFC1123, value); err == nil {
				info.ValidUntil = t
			}
			section = ""
		case "MD5Sum", "SHA1", "SHA256":
			section = field
		default:
			section = ""
		}
	}
	if err := sc.Err(); err != nil {
		return cache.ReleaseInfo{}, nil, errs.NewParseError("Release file", err)
	}
	return info, hashes, nil
}

// CheckExpiry returns a VerificationFailure if the release has passed its
// Valid-Until date.
func CheckExpiry(info cache.ReleaseInfo, now time.Time) error {
	if info.Expired(now) {
		return errs.NewVerificationFailure("release", fmt.Errorf("release expired at %s", info.ValidUntil))
	}
	return nil
}
