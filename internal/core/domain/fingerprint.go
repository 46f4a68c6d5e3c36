package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// UnknownClient is the sentinel substituted for missing client address or user agent.
const UnknownClient = "unknown"

// fingerprintLength is the number of hex characters kept from the digest (64 bits).
const fingerprintLength = 16

// Fingerprint is a stable anonymous visitor identifier. It is derived from the
// client address and user agent (plus optional viewport dimensions) and is never
// reversible to either; it is only ever compared for equality.
type Fingerprint string

// NewFingerprint derives a fingerprint from the client context. Empty address or
// user agent values are normalized to UnknownClient and absent viewport
// dimensions to zero, so the function never fails.
func NewFingerprint(clientAddr, userAgent string, width, height int) Fingerprint {
	if clientAddr == "" {
		clientAddr = UnknownClient
	}
	if userAgent == "" {
		userAgent = UnknownClient
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%d", clientAddr, userAgent, width, height)))
	return Fingerprint(hex.EncodeToString(sum[:])[:fingerprintLength])
}

func (f Fingerprint) String() string {
	return string(f)
}
