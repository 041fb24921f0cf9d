package relation

import (
	"testing"

	"github.com/debcore/debcore/version"
)

func TestParseRelation(t *testing.T) {
	r, err := ParseRelation("libfoo (>= 1.2.3-1)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Package != "libfoo" || r.Operator != OpGreaterEq {
		t.Fatalf("got %+v", r)
	}
	if !r.Satisfies(version.MustParse("1.3")) {
		t.Errorf("expected 1.3 to satisfy >= 1.2.3-1")
	}
	if r.Satisfies(version.MustParse("1.0")) {
		t.Errorf("expected 1.0 to not satisfy >= 1.2.3-1")
	}
}

func TestParseRelationNoVersion(t *testing.T) {
	r, err := ParseRelation("libfoo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Package != "libfoo" || r.Operator != OpNone {
		t.Fatalf("got %+v", r)
	}
	if !r.Satisfies(version.MustParse("99.0")) {
		t.Errorf("unconstrained relation should satisfy any version")
	}
}

func TestParseExpressionAlternatives(t *testing.T) {
	e, err := ParseExpression("libfoo | libbar (>= 2.0)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e) != 2 || e[0].Package != "libfoo" || e[1].Package != "libbar" {
		t.Fatalf("got %+v", e)
	}
}

func TestParseLine(t *testing.T) {
	l, err := ParseLine("libfoo (>= 1.0), libbar | libbaz (<< 2.0)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("expected 2 expressions, got %d: %+v", len(l), l)
	}
	if len(l[1]) != 2 {
		t.Fatalf("expected second expression to have 2 alternatives, got %+v", l[1])
	}
}

func TestParseRelationWithQualifier(t *testing.T) {
	r, q, err := ParseRelationWithQualifier("libfoo (>= 1.0) [amd64 arm64]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Package != "libfoo" {
		t.Fatalf("got %+v", r)
	}
	if !q.Matches("amd64") {
		t.Errorf("expected qualifier to match amd64")
	}
	if q.Matches("i386") {
		t.Errorf("expected qualifier to not match i386")
	}
}

func TestParseRelationWithNegatedQualifier(t *testing.T) {
	_, q, err := ParseRelationWithQualifier("libfoo [!amd64 !arm64]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Matches("amd64") {
		t.Errorf("expected negated qualifier to exclude amd64")
	}
	if !q.Matches("i386") {
		t.Errorf("expected negated qualifier to still match i386")
	}
}

func TestParseRelationErrors(t *testing.T) {
	cases := []string{"", "libfoo (>= )", "libfoo (~~ 1.0)"}
	for _, c := range cases {
		if _, err := ParseRelation(c); err == nil {
			t.Errorf("ParseRelation(%q): expected error", c)
		}
	}
}
