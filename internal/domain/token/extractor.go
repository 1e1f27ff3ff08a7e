package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	// ErrNoCredential is returned when the request carries no bearer token.
	ErrNoCredential = errors.New("no bearer credential")
	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
)

// Extractor verifies bearer credentials and decodes them into Claims.
// Stateless and safe for concurrent use.
type Extractor struct {
	secret []byte
	logger *slog.Logger
}

// NewExtractor creates an Extractor verifying HS256 signatures with the
// given secret.
func NewExtractor(secret []byte, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{secret: secret, logger: logger.With("component", "token")}
}

// wireClaims mirrors the token payload shape on the wire:
//
//	{ sub, teams: [string | {id}], scopes: {server_id?, permissions?, ip_restrictions?, time_restrictions?} }
type wireClaims struct {
	Sub    string    `json:"sub"`
	Teams  []TeamRef `json:"teams"`
	Scopes Scope     `json:"scopes"`
}

// Parse verifies the token string and returns normalized Claims.
// Returns ErrInvalidToken for anything that fails signature or claim
// validation (including expiry).
func (e *Extractor) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return e.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// Round-trip through JSON so TeamRef normalization applies to the
	// duck-typed "teams" entries.
	raw, err := json.Marshal(map[string]any(mapClaims))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var wire wireClaims
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{
		Subject: wire.Sub,
		Scope:   wire.Scopes,
	}
	for _, ref := range wire.Teams {
		if ref.ID != "" {
			claims.Teams = append(claims.Teams, ref.ID)
		}
	}
	return claims, nil
}

// FromHeader pulls the bearer credential from an Authorization header
// and decodes it. Returns ErrNoCredential when no bearer token is
// present, ErrInvalidToken when one is present but does not verify;
// the authorization pipeline treats both as "no claims" and defers to
// the outer authentication layer.
func (e *Extractor) FromHeader(h http.Header) (*Claims, error) {
	raw, ok := BearerToken(h)
	if !ok {
		return nil, ErrNoCredential
	}
	claims, err := e.Parse(raw)
	if err != nil {
		e.logger.Debug("bearer token failed verification",
			"token_fp", Fingerprint(raw), "error", err)
		return nil, err
	}
	return claims, nil
}

// BearerToken returns the raw bearer token from an Authorization
// header, if present.
func BearerToken(h http.Header) (string, bool) {
	auth := h.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	tok := strings.TrimPrefix(auth, "Bearer ")
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Fingerprint returns a short non-reversible correlation id for a raw
// token, for use in logs. Raw tokens are never logged.
func Fingerprint(rawToken string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(rawToken))
}
