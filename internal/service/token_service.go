package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"dgbcommerce-api/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService using HS256 JWT.
//
// Verification never consults the credential store: a token stays valid for
// its whole lifetime even if the merchant's password changes meanwhile.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures a JWTTokenService.
type TokenOption func(*JWTTokenService)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *JWTTokenService) { s.now = now }
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string, opts ...TokenOption) *JWTTokenService {
	s := &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
		// Claims are checked by Verify itself so the failure reasons come out
		// in a fixed order.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a signed session token for the given merchant.
func (s *JWTTokenService) Issue(merchantID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(s.expiry))

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   merchantID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: expiresAt,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt.Time, nil
}

// Verify returns the merchant id carried by a token. Failures wrap one of
// ports.ErrTokenMalformed, ports.ErrTokenBadSignature or ports.ErrTokenExpired.
func (s *JWTTokenService) Verify(tokenString string) (uuid.UUID, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return uuid.Nil, fmt.Errorf("%w: expected three segments", ports.ErrTokenMalformed)
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: decoding signature: %v", ports.ErrTokenMalformed, err)
	}
	// Non-zero trailing bits decode to the same bytes; only the canonical
	// encoding is the signature that was issued.
	if base64.RawURLEncoding.EncodeToString(sig) != parts[2] {
		return uuid.Nil, ports.ErrTokenBadSignature
	}

	// Signature first, so any altered header or payload byte is reported as tampering.
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return uuid.Nil, ports.ErrTokenBadSignature
	}

	var claims jwt.RegisteredClaims
	if _, err := s.parser.ParseWithClaims(tokenString, &claims, s.keyFunc); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ports.ErrTokenMalformed, err)
	}

	merchantID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %v", ports.ErrTokenMalformed, err)
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return uuid.Nil, fmt.Errorf("%w: unexpected issuer %q", ports.ErrTokenMalformed, claims.Issuer)
	}
	if claims.ExpiresAt == nil {
		return uuid.Nil, fmt.Errorf("%w: missing exp", ports.ErrTokenMalformed)
	}

	if !s.now().Before(claims.ExpiresAt.Time) {
		return uuid.Nil, ports.ErrTokenExpired
	}

	return merchantID, nil
}

func (s *JWTTokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
