package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("api", 3, 0) {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.Allow("api", 3, 0) {
		t.Fatal("fourth request should be limited")
	}
}

func TestAllowSeparateKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("first key should pass")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("second key should pass independently")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("first key should be exhausted")
	}
}
