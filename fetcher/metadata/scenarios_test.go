package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"
)

// TestDiffPatchChainEndToEnd covers bringing a locally cached Packages
// file up to date by applying a chain of ed-script diffs rather than
// re-downloading the whole index: plan the chain from a diff-index,
// apply each patch in order, and verify the result's hash matches the
// chain's declared current hash at every step.
func TestDiffPatchChainEndToEnd(t *testing.T) {
	local := []string{"pkg-a 1.0", "pkg-b 2.0", "pkg-c 3.0"}

	afterP1 := []string{"pkg-a 1.0", "pkg-b 2.1", "pkg-c 3.0"}
	afterP2 := []string{"pkg-a 1.0", "pkg-b 2.1", "pkg-c 3.1", "pkg-d 1.0"}

	localHash := sha1OfLines(local)
	afterP1Hash := sha1OfLines(afterP1)
	afterP2Hash := sha1OfLines(afterP2)

	rawIndex := `SHA1-Current: ` + afterP2Hash + ` 4

SHA1-History:
 ` + localHash + ` 3 2024-01-01-0000.00
 ` + afterP1Hash + ` 3 2024-01-02-0000.00
 ` + afterP2Hash + ` 4 2024-01-03-0000.00

SHA1-Patches:
 2024-01-02-0000.00 5 2024-01-02-0000.00.gz
 2024-01-03-0000.00 6 2024-01-03-0000.00.gz
`
	idx, err := ParseDiffIndex(strings.NewReader(rawIndex))
	if err != nil {
		t.Fatalf("ParseDiffIndex: %v", err)
	}

	names, ok := PlanChain(idx, localHash)
	if !ok {
		t.Fatalf("expected chain to be found from local hash")
	}
	if len(names) != 2 || names[0] != "2024-01-02-0000.00" || names[1] != "2024-01-03-0000.00" {
		t.Fatalf("got %+v", names)
	}

	patches := map[string]string{
		"2024-01-02-0000.00": "2c\npkg-b 2.1\n.\n",
		"2024-01-03-0000.00": "3c\npkg-c 3.1\npkg-d 1.0\n.\n",
	}

	lines := local
	wantHashes := map[string]string{
		"2024-01-02-0000.00": afterP1Hash,
		"2024-01-03-0000.00": afterP2Hash,
	}
	for _, name := range names {
		script, ok := patches[name]
		if !ok {
			t.Fatalf("no fixture patch for %q", name)
		}
		got, err := ApplyEdScript(lines, script)
		if err != nil {
			t.Fatalf("ApplyEdScript(%s): %v", name, err)
		}
		lines = got
		if !VerifySHA1(dataOfLines(lines), wantHashes[name]) {
			t.Fatalf("after %s: content %+v does not hash to %s", name, lines, wantHashes[name])
		}
	}

	if !VerifySHA1(dataOfLines(lines), idx.SHA1Current) {
		t.Fatalf("final content does not match SHA1-Current %s", idx.SHA1Current)
	}
}

func dataOfLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func sha1OfLines(lines []string) string {
	sum := sha1.Sum(dataOfLines(lines))
	return hex.EncodeToString(sum[:])
}
