package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	c.now = func() time.Time { return now }
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestCodec(t, now)

	signed, expiresAt, err := c.Encode(7, 42, 600*time.Second)
	require.NoError(t, err)
	assert.Equal(t, now.Add(600*time.Second), expiresAt)

	claims, err := c.Decode(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.FileID)
	assert.Equal(t, int64(42), claims.OwnerID)
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestCodec(t, now)

	signed, _, err := c.Encode(1, 1, time.Second)
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(time.Minute) }
	_, err = c.Decode(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsForeignSecret(t *testing.T) {
	c := newTestCodec(t, time.Now())
	other, err := NewCodec("another-secret", "HS256")
	require.NoError(t, err)

	signed, _, err := other.Encode(1, 1, time.Minute)
	require.NoError(t, err)

	_, err = c.Decode(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsOtherAlgorithm(t *testing.T) {
	c := newTestCodec(t, time.Now())
	other, err := NewCodec(testSecret, "HS512")
	require.NoError(t, err)

	signed, _, err := other.Encode(1, 1, time.Minute)
	require.NoError(t, err)

	_, err = c.Decode(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := newTestCodec(t, time.Now())

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := c.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestDecodeRejectsWrongSubject(t *testing.T) {
	c := newTestCodec(t, time.Now())

	signed := signRaw(t, jwt.MapClaims{
		"sub":           "password-reset",
		"file_id":       1,
		"owner_user_id": 1,
		"exp":           time.Now().Add(time.Minute).Unix(),
	})

	_, err := c.Decode(signed)
	assert.ErrorIs(t, err, ErrWrongSubject)
}

func TestDecodeRejectsMalformedClaims(t *testing.T) {
	c := newTestCodec(t, time.Now())
	exp := time.Now().Add(time.Minute).Unix()

	cases := map[string]jwt.MapClaims{
		"string file id":  {"sub": Subject, "file_id": "1", "owner_user_id": 1, "exp": exp},
		"missing owner":   {"sub": Subject, "file_id": 1, "exp": exp},
		"fractional id":   {"sub": Subject, "file_id": 1.5, "owner_user_id": 1, "exp": exp},
		"null owner":      {"sub": Subject, "file_id": 1, "owner_user_id": nil, "exp": exp},
		"object owner id": {"sub": Subject, "file_id": 1, "owner_user_id": map[string]int{"id": 1}, "exp": exp},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(signRaw(t, claims))
			assert.ErrorIs(t, err, ErrMalformedClaims)
		})
	}
}

func TestDecodeRequiresExpiry(t *testing.T) {
	c := newTestCodec(t, time.Now())

	signed := signRaw(t, jwt.MapClaims{"sub": Subject, "file_id": 1, "owner_user_id": 1})

	_, err := c.Decode(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCodecValidation(t *testing.T) {
	_, err := NewCodec("", "HS256")
	assert.Error(t, err)

	_, err = NewCodec(testSecret, "RS256")
	assert.Error(t, err)

	_, err = NewCodec(testSecret, "nope")
	assert.Error(t, err)
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}
