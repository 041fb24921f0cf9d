package store

import "testing"

func TestAutoInstalledKeyRoundTripsPackageName(t *testing.T) {
	key := autoInstalledKey("libfoo++")
	if key == "" {
		t.Fatalf("empty key")
	}
	if autoInstalledKey("libfoo++") != key {
		t.Errorf("key not stable across calls")
	}
	if autoInstalledKey("other-pkg") == key {
		t.Errorf("different packages collided")
	}
}
