package auth

import (
	"log/slog"
	"testing"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret paseto.V4AsymmetricSecretKey, mutate func(*paseto.Token)) string {
	t.Helper()

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject("user-1")
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(time.Hour))
	token.SetJti("token-1")
	require.NoError(t, token.Set("user_id", "user-1"))
	require.NoError(t, token.Set("email", "reader@example.com"))
	require.NoError(t, token.Set("premium", true))

	if mutate != nil {
		mutate(&token)
	}

	return token.V4Sign(secret, nil)
}

func newTestVerifier(t *testing.T) (*Verifier, paseto.V4AsymmetricSecretKey) {
	t.Helper()

	secret := paseto.NewV4AsymmetricSecretKey()
	verifier, err := NewVerifier(secret.Public().ExportHex())
	require.NoError(t, err)
	return verifier, secret
}

func TestVerify_ValidToken(t *testing.T) {
	verifier, secret := newTestVerifier(t)

	claims, err := verifier.Verify(signedToken(t, secret, nil))
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.True(t, claims.Premium)
}

func TestVerify_ExpiredToken(t *testing.T) {
	verifier, secret := newTestVerifier(t)

	token := signedToken(t, secret, func(tok *paseto.Token) {
		tok.SetExpiration(time.Now().Add(-time.Minute))
	})

	_, err := verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongIssuer(t *testing.T) {
	verifier, secret := newTestVerifier(t)

	token := signedToken(t, secret, func(tok *paseto.Token) {
		tok.SetIssuer("someone-else")
	})

	_, err := verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongKeyRejected(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	otherSecret := paseto.NewV4AsymmetricSecretKey()

	_, err := verifier.Verify(signedToken(t, otherSecret, nil))
	assert.Error(t, err)
}

func TestVerify_MissingUserID(t *testing.T) {
	verifier, secret := newTestVerifier(t)

	token := signedToken(t, secret, func(tok *paseto.Token) {
		require.NoError(t, tok.Set("user_id", ""))
	})

	_, err := verifier.Verify(token)
	assert.Error(t, err)
}

type recordedEvents struct {
	userIDs []string
}

func (r *recordedEvents) PublishAuthChange(userID string) {
	r.userIDs = append(r.userIDs, userID)
}

func TestManager_SignInAndOut(t *testing.T) {
	verifier, secret := newTestVerifier(t)
	events := &recordedEvents{}
	mgr := NewManager(verifier, events, slog.New(slog.DiscardHandler))

	assert.Empty(t, mgr.AccessToken())
	assert.Empty(t, mgr.UserID())

	token := signedToken(t, secret, nil)
	claims, err := mgr.SignIn(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, token, mgr.AccessToken())
	assert.Equal(t, "user-1", mgr.UserID())
	assert.True(t, mgr.Premium())

	mgr.SignOut()
	assert.Empty(t, mgr.AccessToken())
	assert.Nil(t, mgr.Claims())

	assert.Equal(t, []string{"user-1", ""}, events.userIDs)
}

func TestManager_SignInRejectsBadToken(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	events := &recordedEvents{}
	mgr := NewManager(verifier, events, slog.New(slog.DiscardHandler))

	_, err := mgr.SignIn("v4.public.garbage")
	require.Error(t, err)
	assert.Empty(t, events.userIDs)
}
