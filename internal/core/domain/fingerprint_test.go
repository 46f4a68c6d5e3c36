package domain

import (
	"strings"
	"testing"
)

func TestNewFingerprint_Deterministic(t *testing.T) {
	a := NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)
	b := NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)

	if a != b {
		t.Fatalf("expected identical inputs to produce identical fingerprints, got %s and %s", a, b)
	}
}

func TestNewFingerprint_Length(t *testing.T) {
	fp := NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)

	if len(fp) != 16 {
		t.Fatalf("expected 16 hex characters, got %d (%s)", len(fp), fp)
	}
	if strings.Trim(string(fp), "0123456789abcdef") != "" {
		t.Fatalf("expected lowercase hex, got %s", fp)
	}
}

func TestNewFingerprint_InputSensitivity(t *testing.T) {
	base := NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 1080)

	variants := map[string]Fingerprint{
		"address":  NewFingerprint("203.0.113.11", "Mozilla/5.0", 1920, 1080),
		"agent":    NewFingerprint("203.0.113.10", "curl/8.0", 1920, 1080),
		"width":    NewFingerprint("203.0.113.10", "Mozilla/5.0", 1280, 1080),
		"height":   NewFingerprint("203.0.113.10", "Mozilla/5.0", 1920, 720),
		"viewport": NewFingerprint("203.0.113.10", "Mozilla/5.0", 0, 0),
	}

	for name, fp := range variants {
		if fp == base {
			t.Fatalf("changing %s did not change the fingerprint", name)
		}
	}
}

func TestNewFingerprint_NormalizesMissingClientContext(t *testing.T) {
	missing := NewFingerprint("", "", 0, 0)
	explicit := NewFingerprint(UnknownClient, UnknownClient, 0, 0)

	if missing != explicit {
		t.Fatalf("expected empty inputs to normalize to %q, got %s vs %s", UnknownClient, missing, explicit)
	}
}

func TestSharePlatform_Valid(t *testing.T) {
	for _, p := range []SharePlatform{
		SharePlatformTwitter,
		SharePlatformLinkedIn,
		SharePlatformFacebook,
		SharePlatformCopy,
		SharePlatformWhatsApp,
	} {
		if !p.Valid() {
			t.Fatalf("expected %s to be valid", p)
		}
	}

	for _, p := range []SharePlatform{"", "email", "TWITTER", "mastodon"} {
		if p.Valid() {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}

func TestDefaultRateLimitPolicies_CoversAllEndpoints(t *testing.T) {
	policies := DefaultRateLimitPolicies()

	for _, endpoint := range []string{EndpointContact, EndpointAnalytics, EndpointLike, EndpointShare, EndpointGlobal} {
		policy, ok := policies[endpoint]
		if !ok {
			t.Fatalf("missing policy for %s", endpoint)
		}
		if policy.Window <= 0 || policy.MaxRequests <= 0 {
			t.Fatalf("degenerate policy for %s: %+v", endpoint, policy)
		}
	}
}
