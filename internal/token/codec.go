// Package token mints and verifies the signed download tokens embedded in
// signed links.
package token

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject is the fixed purpose tag carried by every download token.
const Subject = "file-download"

var (
	// ErrInvalidToken covers bad signatures, unsupported algorithms,
	// malformed structure and expiry.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWrongSubject is returned for validly signed tokens minted for another purpose.
	ErrWrongSubject = errors.New("token subject mismatch")
	// ErrMalformedClaims is returned when ids are missing or not integers.
	ErrMalformedClaims = errors.New("token claims are malformed")
)

// Claims is the decoded payload of a download token.
type Claims struct {
	FileID    int64
	OwnerID   int64
	ExpiresAt time.Time
}

// Codec signs and verifies download tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewCodec builds a codec for an HMAC algorithm name such as "HS256".
func NewCodec(secret, algorithm string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret cannot be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &Codec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// Encode mints a token for the file and its owner, expiring after ttl.
func (c *Codec) Encode(fileID, ownerID int64, ttl time.Duration) (string, time.Time, error) {
	expiresAt := c.now().UTC().Add(ttl)
	claims := wireClaims{
		FileID:  intClaim{Value: fileID, Valid: true},
		OwnerID: intClaim{Value: ownerID, Valid: true},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies signature and expiry before looking at the payload ids.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	var claims wireClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Subject != Subject {
		return Claims{}, ErrWrongSubject
	}
	if !claims.FileID.Valid || !claims.OwnerID.Valid {
		return Claims{}, ErrMalformedClaims
	}

	return Claims{
		FileID:    claims.FileID.Value,
		OwnerID:   claims.OwnerID.Value,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type wireClaims struct {
	FileID  intClaim `json:"file_id"`
	OwnerID intClaim `json:"owner_user_id"`
	jwt.RegisteredClaims
}

// intClaim accepts any JSON value and records whether it was an integer,
// so a type mismatch is reported after the signature has been checked.
type intClaim struct {
	Value int64
	Valid bool
}

func (i intClaim) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(i.Value, 10)), nil
}

func (i *intClaim) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		*i = intClaim{}
		return nil
	}
	*i = intClaim{Value: v, Valid: true}
	return nil
}
