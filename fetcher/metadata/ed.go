package metadata

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ApplyEdScript applies the documented subset of ed(1) commands that
// apt's own Packages.diff patches actually emit: numeric- or
// "$"-addressed single-line or range "c" (change) and "d" (delete)
// commands, each followed by replacement text terminated by a lone ".",
// plus a trailing "w" command which is accepted and ignored (this
// function always returns the result rather than writing a file). No
// general ed interpreter is implemented since no wider command subset
// appears in real Debian archive patches.
func ApplyEdScript(original []string, script string) ([]string, error) {
	lines := append([]string(nil), original...)
	sc := bufio.NewScanner(strings.NewReader(script))

	for sc.Scan() {
		cmdLine := sc.Text()
		if cmdLine == "" {
			continue
		}
		if cmdLine == "w" {
			continue
		}

		start, end, cmd, err := parseAddress(cmdLine, len(lines))
		if err != nil {
			return nil, fmt.Errorf("ed script: %w", err)
		}

		switch cmd {
		case 'd':
			lines = deleteRange(lines, start, end)
		case 'c':
			var replacement []string
			for sc.Scan() {
				text := sc.Text()
				if text == "." {
					break
				}
				replacement = append(replacement, text)
			}
			lines = changeRange(lines, start, end, replacement)
		default:
			return nil, fmt.Errorf("ed script: unsupported command %q", string(cmd))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ed script: %w", err)
	}
	return lines, nil
}

// parseAddress parses a command line like "5d", "3,7c", or "$d" into its
// 1-based inclusive [start,end] line range and trailing command letter.
func parseAddress(s string, lastLine int) (start, end int, cmd byte, err error) {
	if s == "" {
		return 0, 0, 0, fmt.Errorf("empty command line")
	}
	cmd = s[len(s)-1]
	addr := s[:len(s)-1]

	parse := func(tok string) (int, error) {
		if tok == "$" {
			return lastLine, nil
		}
		return strconv.Atoi(tok)
	}

	if i := strings.IndexByte(addr, ','); i >= 0 {
		start, err = parse(addr[:i])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("bad start address in %q: %w", s, err)
		}
		end, err = parse(addr[i+1:])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("bad end address in %q: %w", s, err)
		}
		return start, end, cmd, nil
	}

	start, err = parse(addr)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad address in %q: %w", s, err)
	}
	return start, start, cmd, nil
}

// deleteRange removes 1-based inclusive lines [start,end].
func deleteRange(lines []string, start, end int) []string {
	if start < 1 || end > len(lines) || start > end {
		return lines
	}
	out := make([]string, 0, len(lines)-(end-start+1))
	out = append(out, lines[:start-1]...)
	out = append(out, lines[end:]...)
	return out
}

// changeRange replaces 1-based inclusive lines [start,end] with replacement.
func changeRange(lines []string, start, end int, replacement []string) []string {
	if start < 1 || end > len(lines) || start > end {
		return lines
	}
	out := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	out = append(out, lines[:start-1]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}
