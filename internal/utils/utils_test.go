package utils

import (
	"strings"
	"testing"
	"time"
)

func TestLocalCacheExpiry(t *testing.T) {
	c := NewLocalCache(4)
	c.Set("tags", []string{"a"}, time.Hour)
	c.Set("old", 1, -time.Second)

	if c.Get("tags") == nil {
		t.Error("Expected cached value")
	}
	if c.Get("old") != nil {
		t.Error("Expected expired value to be dropped")
	}
	c.Delete("tags")
	if c.Get("tags") != nil {
		t.Error("Expected deleted value to be gone")
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**Boil** water\n\n![pic](http://example.com/a.png)\n\n<script>alert(1)</script>")
	if !strings.Contains(out, "<strong>Boil</strong>") {
		t.Errorf("Expected bold text, got %s", out)
	}
	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("Expected lazy image, got %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Expected script to be stripped, got %s", out)
	}
	if RenderMarkdown("") != "" {
		t.Error("Expected empty output for empty text")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-pass") {
		t.Error("Expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("Expected wrong password to fail")
	}
}

func TestValidators(t *testing.T) {
	cases := []struct {
		name string
		got  bool
		want bool
	}{
		{"username ok", ValidUsername("chef.anna+1"), true},
		{"username space", ValidUsername("chef anna"), false},
		{"slug ok", ValidSlug("breakfast_1"), true},
		{"slug bad", ValidSlug("break fast"), false},
		{"color ok", ValidColor("#E26C2D"), true},
		{"color short", ValidColor("#FFF"), false},
		{"email ok", ValidEmail("anna@example.com"), true},
		{"email bad", ValidEmail("anna"), false},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, tc.got)
		}
	}
}

func TestAccessToken(t *testing.T) {
	tok, err := NewAccessToken("k", 42, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseAccessToken("k", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.ID != tok.ID {
		t.Errorf("Unexpected claims %+v", claims)
	}
	if _, err := ParseAccessToken("other", tok.Token); err == nil {
		t.Error("Expected signature check to fail with another secret")
	}

	expired, _ := NewAccessToken("k", 42, -time.Minute)
	if _, err := ParseAccessToken("k", expired.Token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestParseID(t *testing.T) {
	if id, ok := ParseID("17"); !ok || id != 17 {
		t.Errorf("Expected 17, got %d %v", id, ok)
	}
	for _, s := range []string{"0", "-1", "abc", ""} {
		if _, ok := ParseID(s); ok {
			t.Errorf("Expected %q to be rejected", s)
		}
	}
}
