package token_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/jwt-auth/internal/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "token-test-secret-at-least-32-chars!!"
	ttl        = 30 * time.Minute
)

var issuedAt = time.Unix(1_700_000_000, 0)

func newIssuer(t *testing.T, secret string) *token.Issuer {
	t.Helper()
	iss, err := token.NewIssuer(token.Config{Secret: []byte(secret), TTL: ttl})
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := token.NewIssuer(token.Config{})
	assert.Error(t, err)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	iss, err := token.NewIssuer(token.Config{Secret: []byte(testSecret)})
	require.NoError(t, err)
	assert.Equal(t, token.DefaultTTL, iss.TTL())
}

func TestIssue_CompactHS256WithExactClaims(t *testing.T) {
	raw, err := newIssuer(t, testSecret).Issue("a@x.com", 42, issuedAt, ttl)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	var header map[string]any
	decodeSegment(t, parts[0], &header)
	assert.Equal(t, "HS256", header["alg"])

	var payload map[string]any
	decodeSegment(t, parts[1], &payload)
	assert.Equal(t, map[string]any{
		"sub":     "a@x.com",
		"user_id": float64(42),
		"exp":     float64(issuedAt.Add(ttl).Unix()),
	}, payload)
}

func TestIssue_Deterministic(t *testing.T) {
	iss := newIssuer(t, testSecret)

	first, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)
	second, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestVerify_ReturnsClaims(t *testing.T) {
	iss := newIssuer(t, testSecret)
	raw, err := iss.Issue("a@x.com", 7, issuedAt, ttl)
	require.NoError(t, err)

	claims, err := iss.Verify(raw, issuedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, int64(7), claims.UserID)
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(ttl)))
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	iss := newIssuer(t, testSecret)
	raw, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)

	exp := issuedAt.Add(ttl)

	_, err = iss.Verify(raw, exp.Add(-time.Second))
	assert.NoError(t, err, "just before exp")

	_, err = iss.Verify(raw, exp)
	assert.ErrorIs(t, err, token.ErrExpired, "at exp")

	_, err = iss.Verify(raw, exp.Add(time.Second))
	assert.ErrorIs(t, err, token.ErrExpired, "after exp")
}

func TestVerify_DifferentKey(t *testing.T) {
	raw, err := newIssuer(t, testSecret).Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)

	_, err = newIssuer(t, "rotated-secret-also-32-characters-long").Verify(raw, issuedAt)
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerify_SignatureCheckedBeforeExpiry(t *testing.T) {
	raw, err := newIssuer(t, testSecret).Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)

	_, err = newIssuer(t, "rotated-secret-also-32-characters-long").Verify(raw, issuedAt.Add(2*ttl))
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerify_TamperedPayload(t *testing.T) {
	iss := newIssuer(t, testSecret)
	raw, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)
	parts := strings.Split(raw, ".")

	forged, err := json.Marshal(map[string]any{
		"sub":     "a@x.com",
		"user_id": 2,
		"exp":     issuedAt.Add(ttl).Unix(),
	})
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = iss.Verify(strings.Join(parts, "."), issuedAt)
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerify_SingleByteFlipInClaims(t *testing.T) {
	iss := newIssuer(t, testSecret)
	raw, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)
	parts := strings.Split(raw, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	// "a@x.com" -> "b@x.com" keeps the payload valid JSON.
	idx := strings.Index(string(payload), "a@x.com")
	require.GreaterOrEqual(t, idx, 0)
	payload[idx] ^= 0x03
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)

	_, err = iss.Verify(strings.Join(parts, "."), issuedAt)
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	iss := newIssuer(t, testSecret)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not a jwt", "not.a.jwt"},
		{"two segments", "abc.def"},
		{"garbage", "clearly-not-a-jwt-token-format"},
		{"bad base64 payload", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.!!!.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := iss.Verify(tt.raw, issuedAt)
			assert.ErrorIs(t, err, token.ErrMalformed)
			assert.Nil(t, claims)
		})
	}
}

func TestVerify_MissingExpIsMalformed(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "a@x.com",
		"user_id": 1,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newIssuer(t, testSecret).Verify(raw, issuedAt)
	assert.ErrorIs(t, err, token.ErrMalformed)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	iss := newIssuer(t, testSecret)
	claims := jwt.MapClaims{
		"sub":     "a@x.com",
		"user_id": 1,
		"exp":     issuedAt.Add(ttl).Unix(),
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{"HS384": hs384, "HS512": hs512, "none": none} {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(raw, issuedAt)
			assert.ErrorIs(t, err, token.ErrInvalidSignature)
		})
	}
}

func TestVerify_RejectsAlgHeaderSwap(t *testing.T) {
	iss := newIssuer(t, testSecret)
	raw, err := iss.Issue("a@x.com", 1, issuedAt, ttl)
	require.NoError(t, err)
	parts := strings.Split(raw, ".")

	parts[0] = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	_, err = iss.Verify(parts[0]+"."+parts[1]+".", issuedAt)
	assert.ErrorIs(t, err, token.ErrInvalidSignature)
}

func decodeSegment(t *testing.T, seg string, v any) {
	t.Helper()
	b, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}
