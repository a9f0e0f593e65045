package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
)

const testIssuer = "auth-service-test"

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newCipher(t *testing.T) *auth.SubjectCipher {
	t.Helper()
	c, err := auth.NewSubjectCipher("unit-test-subject-secret")
	require.NoError(t, err)
	return c
}

func newCodec(t *testing.T, clock *fixedClock, subjects *auth.SubjectCipher) *auth.TokenCodec {
	t.Helper()
	priv, pub, err := auth.GenerateECKeyPair("ES512")
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec(auth.TokenCodecOptions{
		Algorithm:     "ES512",
		PrivateKeyPEM: priv,
		PublicKeyPEM:  pub,
		Issuer:        testIssuer,
		Version:       1,
		Subjects:      subjects,
		Now:           clock.Now,
	})
	require.NoError(t, err)
	return codec
}
