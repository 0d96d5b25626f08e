package kv

import (
	"sort"
	"testing"
	"time"
)

func TestMemoryStoreExpiry(t *testing.T) {
	m := newMemoryStore()
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.set("otp:a", "123456", 10*time.Minute)

	if v, ok := m.get("otp:a"); !ok || v != "123456" {
		t.Fatalf("get = %q, %v, want \"123456\", true", v, ok)
	}

	now = now.Add(10*time.Minute + time.Second)

	if _, ok := m.get("otp:a"); ok {
		t.Fatalf("expired entry still visible")
	}
	if ok := m.compareAndDelete("otp:a", "123456"); ok {
		t.Fatalf("compareAndDelete consumed an expired entry")
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	m := newMemoryStore()
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.set("a", "1", time.Minute)
	m.set("b", "2", time.Hour)

	now = now.Add(2 * time.Minute)

	if removed := m.sweep(); removed != 1 {
		t.Fatalf("sweep removed %d entries, want 1", removed)
	}
	if _, ok := m.get("b"); !ok {
		t.Fatalf("sweep removed a live entry")
	}
}

func TestMemoryStoreScanSkipsExpired(t *testing.T) {
	m := newMemoryStore()
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	m.set("session:live", "1", time.Hour)
	m.set("session:dead", "2", time.Minute)
	now = now.Add(2 * time.Minute)

	keys, err := m.scan("session:*")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "session:live" {
		t.Fatalf("scan = %v, want [session:live]", keys)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	m := newMemoryStore()
	m.set("a", "1", time.Minute)
	m.set("b", "2", time.Minute)

	if n := m.clear(); n != 2 {
		t.Fatalf("clear = %d, want 2", n)
	}
	if _, ok := m.get("a"); ok {
		t.Fatalf("entry survived clear")
	}
}

func TestGlobToRegexp(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		match   bool
	}{
		{"*", "anything", true},
		{"session:*", "session:abc", true},
		{"session:*", "sessions:abc", false},
		{"session:*", "otp:abc", false},
		{"rate_limit:send_otp:*", "rate_limit:send_otp:a@b.c", true},
		{"rate_limit:*:a@b.c", "rate_limit:send_otp:a@b.c", true},
		{"exact", "exact", true},
		{"exact", "exact-no", false},
		// Regexp metacharacters in keys must be literal.
		{"otp:a.b*", "otp:a.b+c", true},
		{"otp:a.b*", "otp:aXb+c", false},
	}

	for _, tc := range cases {
		re, err := globToRegexp(tc.pattern)
		if err != nil {
			t.Fatalf("globToRegexp(%q) failed: %v", tc.pattern, err)
		}
		if got := re.MatchString(tc.key); got != tc.match {
			t.Fatalf("pattern %q against %q = %v, want %v", tc.pattern, tc.key, got, tc.match)
		}
	}
}

func TestMemoryStoreScanEmptyResult(t *testing.T) {
	m := newMemoryStore()
	m.set("otp:a", "1", time.Minute)

	keys, err := m.scan("session:*")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("scan = %v, want empty", keys)
	}

	m.set("otp:b", "2", time.Minute)
	all, _ := m.scan("otp:*")
	sort.Strings(all)
	if len(all) != 2 || all[0] != "otp:a" || all[1] != "otp:b" {
		t.Fatalf("scan = %v, want [otp:a otp:b]", all)
	}
}
