package config

import "testing"

func TestConfigDefaults(t *testing.T) {
	c := New(nil, nil)
	if got := c.String("missing", "def"); got != "def" {
		t.Errorf("String default: got %q", got)
	}
	if got := c.Bool("missing", true); got != true {
		t.Errorf("Bool default: got %v", got)
	}
	if got := c.Int("missing", 42); got != 42 {
		t.Errorf("Int default: got %d", got)
	}
	if got := c.Float("missing", 1.5); got != 1.5 {
		t.Errorf("Float default: got %v", got)
	}
	if got := c.List("missing"); got != nil {
		t.Errorf("List default: got %v", got)
	}
	if c.Has("missing") {
		t.Errorf("Has: expected false")
	}
}

func TestConfigParsing(t *testing.T) {
	scalars := map[string]string{
		"debcore::resolver::max-solution-count":    "64",
		"debcore::resolver::score::quality-bar":    "-512.5",
		"apt::install-recommends":               "no",
		"apt::install-suggests":                 "yes",
		"debcore::worker::archives-space-limit":    "not-a-number",
	}
	lists := map[string][]string{
		"debcore::downloader::protocols::http::methods": {"curl", "wget"},
	}
	c := New(scalars, lists)

	if got := c.Int("debcore::resolver::max-solution-count", 0); got != 64 {
		t.Errorf("max-solution-count: got %d", got)
	}
	if got := c.Float("debcore::resolver::score::quality-bar", 0); got != -512.5 {
		t.Errorf("quality-bar: got %v", got)
	}
	if c.Bool("apt::install-recommends", true) {
		t.Errorf("install-recommends: expected false")
	}
	if !c.Bool("apt::install-suggests", false) {
		t.Errorf("install-suggests: expected true")
	}
	if got := c.Int("debcore::worker::archives-space-limit", -1); got != -1 {
		t.Errorf("malformed int should fall back to default, got %d", got)
	}
	if got := c.List("debcore::downloader::protocols::http::methods"); len(got) != 2 {
		t.Errorf("methods list: got %v", got)
	}
	if !c.Has("apt::install-recommends") {
		t.Errorf("Has: expected true")
	}
}
