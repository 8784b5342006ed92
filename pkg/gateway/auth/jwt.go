package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceTokenVerifier accepts HS256 tokens minted by the platform's token
// service for internal callers such as batch scorers. This service never
// issues them.
type ServiceTokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

func NewServiceTokenVerifier(secret, issuer, audience string) (*ServiceTokenVerifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("service token secret must be at least 16 characters")
	}
	if issuer == "" || audience == "" {
		return nil, errors.New("service token issuer and audience are required")
	}
	return &ServiceTokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   30 * time.Second,
		now:      time.Now,
	}, nil
}

// ServiceClaims are the claims a service token must carry.
type ServiceClaims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	NotBefore int64  `json:"nbf"`
	ExpiresAt int64  `json:"exp"`
	Role      string `json:"role"`
}

// ParseToken checks signature, algorithm and registered claims.
func (v *ServiceTokenVerifier) ParseToken(token string) (*ServiceClaims, error) {
	header, payload, signature, ok := splitToken(token)
	if !ok {
		return nil, errors.New("malformed token")
	}

	var head struct {
		Algorithm string `json:"alg"`
	}
	if err := decodeSegment(header, &head); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if head.Algorithm != "HS256" {
		return nil, fmt.Errorf("unsupported algorithm %q", head.Algorithm)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(header + "." + payload))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, errors.New("signature mismatch")
	}

	var claims ServiceClaims
	if err := decodeSegment(payload, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	switch now := v.now(); {
	case claims.Issuer != v.issuer:
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	case claims.Audience != v.audience:
		return nil, fmt.Errorf("unexpected audience %q", claims.Audience)
	case claims.Subject == "":
		return nil, errors.New("missing subject")
	case claims.ExpiresAt == 0 || now.Add(-v.leeway).Unix() > claims.ExpiresAt:
		return nil, errors.New("token expired")
	case now.Add(v.leeway).Unix() < claims.NotBefore:
		return nil, errors.New("token not yet valid")
	}
	return &claims, nil
}

func (v *ServiceTokenVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := v.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &Principal{Subject: claims.Subject, Role: claims.Role, Issuer: claims.Issuer}, nil
}

func splitToken(token string) (header, payload, signature string, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func decodeSegment(segment string, dst interface{}) error {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
