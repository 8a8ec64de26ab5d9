package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrPasswordRequired    = errors.New("password required")
	ErrInvalidCredentials  = errors.New("invalid password")
	ErrServerMisconfigured = errors.New("server configuration error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrValidation          = errors.New("invalid board data structure")
	ErrStore               = errors.New("board store failure")
)

// TokenTTL is both the token lifetime and the auth cookie Max-Age.
const TokenTTL = 24 * time.Hour

// IssueToken checks password against configuredPassword and returns a signed
// session token valid for TokenTTL from now.
func IssueToken(password, configuredPassword string, secret []byte, now time.Time) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	if configuredPassword == "" || len(secret) == 0 {
		return "", ErrServerMisconfigured
	}

	// Hash both sides so the comparison time does not depend on length.
	got := sha256.Sum256([]byte(password))
	want := sha256.Sum256([]byte(configuredPassword))
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"authenticated": true,
		"timestamp":     now.UnixMilli(),
		"iat":           now.Unix(),
		"exp":           now.Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken reports whether token carries a valid HS256 signature under
// secret, has not expired at now and claims authenticated == true.
func VerifyToken(tokenString string, secret []byte, now time.Time) bool {
	if tokenString == "" || len(secret) == 0 {
		return false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	return isAuthenticated(claims)
}

// PeekToken is the reduced check used before serving pages: the payload is
// decoded without verifying the signature, exp (when present) must be after
// now and authenticated must be true. Callers that grant data access must use
// VerifyToken instead.
func PeekToken(tokenString string, now time.Time) bool {
	if tokenString == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp != nil && !now.Before(exp.Time) {
		return false
	}
	return isAuthenticated(claims)
}

func isAuthenticated(claims jwt.MapClaims) bool {
	v, ok := claims["authenticated"].(bool)
	return ok && v
}

// Login issues a session token for password using the configured credentials.
func (s *Service) Login(password string) (string, error) {
	token, err := IssueToken(password, s.BoardPassword, s.JWTSecret, s.Now())
	if errors.Is(err, ErrServerMisconfigured) {
		s.Log.Errorf("login rejected: BOARD_PASSWORD or JWT_SECRET not configured")
	}
	return token, err
}

// Authenticate returns ErrUnauthorized unless token passes full verification.
func (s *Service) Authenticate(token string) error {
	if !VerifyToken(token, s.JWTSecret, s.Now()) {
		return ErrUnauthorized
	}
	return nil
}
