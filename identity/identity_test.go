package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifierRoundTrip(t *testing.T) {
	v := NewHMACVerifier("top-secret")

	token := v.Sign("user-42")
	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestHMACVerifierRejectsTamperedToken(t *testing.T) {
	v := NewHMACVerifier("top-secret")

	token := v.Sign("user-42")
	_, err := v.Verify("user-43." + token[len("user-42."):])
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifierRejectsWrongSecret(t *testing.T) {
	issuer := NewHMACVerifier("secret-a")
	verifier := NewHMACVerifier("secret-b")

	_, err := verifier.Verify(issuer.Sign("user-42"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifierRejectsMalformed(t *testing.T) {
	v := NewHMACVerifier("top-secret")

	for _, token := range []string{"", "no-dot", ".abcdef", "user.not-hex"} {
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestInsecureVerifier(t *testing.T) {
	v := InsecureVerifier{}

	userID, err := v.Verify("dev-user")
	require.NoError(t, err)
	assert.Equal(t, "dev-user", userID)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
