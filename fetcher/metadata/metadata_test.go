package metadata

import (
	"strings"
	"testing"
	"time"
)

func TestParseReleaseBasic(t *testing.T) {
	raw := `Origin: Debian
Label: Debian
Suite: stable
Codename: bookworm
Version: 12.0
Components: main contrib
Architectures: amd64 arm64
Date: Mon, 01 Jan 2024 00:00:00 UTC
Valid-Until: Mon, 08 Jan 2024 00:00:00 UTC
SHA256:
 abcd 1234 main/binary-amd64/Packages.gz
 ef01 5678 main/binary-amd64/Packages.xz
`
	info, hashes, err := ParseRelease(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseRelease: %v", err)
	}
	if info.Codename != "bookworm" || len(info.Components) != 2 {
		t.Fatalf("got %+v", info)
	}
	if len(hashes["SHA256"]) != 2 {
		t.Fatalf("expected 2 SHA256 entries, got %+v", hashes)
	}
}

func TestCheckExpiry(t *testing.T) {
	raw := `Valid-Until: Mon, 01 Jan 2024 00:00:00 UTC
`
	info, _, err := ParseRelease(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseRelease: %v", err)
	}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := CheckExpiry(info, now); err == nil {
		t.Errorf("expected expired release to fail CheckExpiry")
	}
}

func TestPreferredVariant(t *testing.T) {
	name, c := PreferredVariant([]string{"Packages", "Packages.gz", "Packages.xz"})
	if c != CompressionXZ || name != "Packages.xz" {
		t.Errorf("expected xz preferred, got %q %v", name, c)
	}
}

func TestDiffIndexChain(t *testing.T) {
	raw := `SHA1-Current: cccc 100

SHA1-History:
 aaaa 10 2024-01-01-0000.00
 bbbb 20 2024-01-02-0000.00
 cccc 30 2024-01-03-0000.00

SHA1-Patches:
 p1 5 2024-01-02-0000.00.gz
 p2 6 2024-01-03-0000.00.gz
`
	idx, err := ParseDiffIndex(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ParseDiffIndex: %v", err)
	}
	names, ok := PlanChain(idx, "aaaa")
	if !ok {
		t.Fatalf("expected chain to be found from aaaa")
	}
	if len(names) != 2 || names[0] != "p1" || names[1] != "p2" {
		t.Fatalf("got %+v", names)
	}
}

func TestApplyEdScriptDeleteAndChange(t *testing.T) {
	original := []string{"one", "two", "three", "four"}
	script := "2d\n1c\nONE\n.\n"
	got, err := ApplyEdScript(original, script)
	if err != nil {
		t.Fatalf("ApplyEdScript: %v", err)
	}
	want := []string{"ONE", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
