// Package auth loads the bearer token presented to the camera service's
// authenticate method and inspects its expiry.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// TokenEnvVar is consulted when neither a literal token nor a token file is configured.
const TokenEnvVar = "CAMERA_AUTH_TOKEN"

// LoadToken resolves the auth token. A literal token wins over a token file,
// which wins over the CAMERA_AUTH_TOKEN environment variable. An empty result
// with a nil error means no token is configured.
func LoadToken(token, tokenFile string) (string, error) {
	if t := strings.TrimSpace(token); t != "" {
		return t, nil
	}

	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		t := strings.TrimSpace(string(data))
		if t == "" {
			return "", fmt.Errorf("token file %s is empty", tokenFile)
		}
		return t, nil
	}

	return strings.TrimSpace(os.Getenv(TokenEnvVar)), nil
}

// claims is the subset of JWT claims the client looks at.
type claims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// Expiry returns the exp claim of a JWT without verifying its signature.
// The signature is checked by the server; the client only uses the expiry to
// warn before presenting a stale token. ok is false for non-JWT tokens
// (API keys) and tokens without exp.
func Expiry(token string) (exp time.Time, ok bool) {
	c, err := parseClaims(token)
	if err != nil || c.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(c.ExpiresAt, 0), true
}

// Role returns the role claim of a JWT, or "" when absent.
func Role(token string) string {
	c, err := parseClaims(token)
	if err != nil {
		return ""
	}
	return c.Role
}

// Expired reports whether the token carries an exp claim that is before now.
func Expired(token string, now time.Time) bool {
	exp, ok := Expiry(token)
	return ok && !now.Before(exp)
}

func parseClaims(token string) (claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims{}, fmt.Errorf("not a JWT: %d segments", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims{}, fmt.Errorf("decode payload: %w", err)
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return claims{}, fmt.Errorf("parse claims: %w", err)
	}
	return c, nil
}
