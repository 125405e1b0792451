package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundtrip(t *testing.T) {
	codec := newStateCodec([]byte("test-secret"))
	state, err := codec.sign(statePayload{
		Provider:     "google",
		Neighborhood: "fairhill",
		Expires:      time.Now().Add(time.Minute).Unix(),
	})
	require.NoError(t, err)

	got, err := codec.verify(state)
	require.NoError(t, err)
	assert.Equal(t, "google", got.Provider)
	assert.Equal(t, "fairhill", got.Neighborhood)
	assert.NotEmpty(t, got.Nonce)
}

func TestStateTamperDetected(t *testing.T) {
	codec := newStateCodec([]byte("test-secret"))
	state, err := codec.sign(statePayload{Provider: "google", Expires: time.Now().Add(time.Minute).Unix()})
	require.NoError(t, err)

	msg, sig, _ := strings.Cut(state, ".")
	_, err = codec.verify("x" + msg + "." + sig)
	require.ErrorIs(t, err, ErrBadState)

	_, err = codec.verify("no-dot-here")
	require.ErrorIs(t, err, ErrBadState)

	other := newStateCodec([]byte("different-secret"))
	_, err = other.verify(state)
	require.ErrorIs(t, err, ErrBadState)
}

func TestStateExpiry(t *testing.T) {
	codec := newStateCodec([]byte("test-secret"))
	state, err := codec.sign(statePayload{Provider: "google", Expires: time.Now().Add(-time.Second).Unix()})
	require.NoError(t, err)

	_, err = codec.verify(state)
	require.Error(t, err)
}

func TestStateEphemeralSecret(t *testing.T) {
	a := newStateCodec(nil)
	b := newStateCodec(nil)
	state, err := a.sign(statePayload{Provider: "facebook", Expires: time.Now().Add(time.Minute).Unix()})
	require.NoError(t, err)

	_, err = a.verify(state)
	require.NoError(t, err)
	_, err = b.verify(state)
	require.Error(t, err)
}
