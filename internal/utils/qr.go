package utils

import (
    "strings"

    "github.com/google/uuid"
)

// QR pickup payloads are full URLs so the seller's scanner can apply an
// origin whitelist before submitting anything to the server: a scanned
// string that does not start with this service's public origin is
// silently ignored.  The token itself is opaque; the server resolves it
// through the QR store, so the URL shape carries no authority.

const qrPathPrefix = "/qr/"

// NewQRToken returns a fresh opaque pickup token.
func NewQRToken() string { return uuid.NewString() }

// BuildQRPayload renders the scannable payload for a token.
func BuildQRPayload(publicBaseURL, token string) string {
    return strings.TrimRight(publicBaseURL, "/") + qrPathPrefix + token
}

// ParseQRPayload extracts the token from a scanned payload.  It returns
// false when the payload does not carry the expected origin prefix or
// holds no token, in which case the caller must silently drop it.
func ParseQRPayload(publicBaseURL, payload string) (string, bool) {
    prefix := strings.TrimRight(publicBaseURL, "/") + qrPathPrefix
    if !strings.HasPrefix(payload, prefix) {
        return "", false
    }
    token := strings.TrimPrefix(payload, prefix)
    if token == "" || strings.ContainsAny(token, "/?#") {
        return "", false
    }
    return token, true
}
