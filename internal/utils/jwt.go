package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the "role" claim.
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT.  sub is the student id
// (or any admin identifier), role is STUDENT or ADMIN.  Tokens are issued
// by an external identity provider in production; this helper backs the
// dev token command and tests.
func NewAccessToken(secret string, sub uint64, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(sub, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Claims are the verified identity fields of an access token.
type Claims struct {
	Subject uint64
	Role    string
}

// ParseAccessToken verifies an HS256 token and extracts sub and role.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, errors.New("invalid token claims")
	}
	sub, err := subjectID(mc["sub"])
	if err != nil {
		return Claims{}, err
	}
	role, _ := mc["role"].(string)
	if role == "" {
		return Claims{}, errors.New("missing role claim")
	}
	return Claims{Subject: sub, Role: role}, nil
}

// subjectID accepts sub as a decimal string or a JSON number.
func subjectID(v any) (uint64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseUint(t, 10, 64)
	case float64:
		if t <= 0 || t != float64(uint64(t)) {
			return 0, errors.New("invalid sub claim")
		}
		return uint64(t), nil
	default:
		return 0, errors.New("missing sub claim")
	}
}
