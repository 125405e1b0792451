package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillyrising/domain"
)

func TestDisqusSign(t *testing.T) {
	signer := DisqusSigner{SecretKey: "s3cret", Uniquifier: "-phl"}
	now := time.Unix(1378130400, 0)

	out := signer.Sign(&domain.Profile{
		ID:        "42",
		Username:  "ada",
		Email:     "ada@example.com",
		AvatarURL: "http://img/ada.png",
	}, now)

	parts := strings.Split(out, " ")
	require.Len(t, parts, 3)
	message, signature, ts := parts[0], parts[1], parts[2]
	assert.Equal(t, "1378130400", ts)

	raw, err := base64.StdEncoding.DecodeString(message)
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "42-phl", payload["id"])
	assert.Equal(t, "ada", payload["username"])
	assert.Equal(t, "ada@example.com", payload["email"])
	assert.Equal(t, "http://img/ada.png", payload["avatar"])

	mac := hmac.New(sha1.New, []byte("s3cret"))
	fmt.Fprintf(mac, "%s %s", message, ts)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestDisqusSignAnonymous(t *testing.T) {
	signer := DisqusSigner{SecretKey: "s3cret"}
	out := signer.Sign(nil, time.Unix(0, 0))

	parts := strings.Split(out, " ")
	require.Len(t, parts, 3)
	raw, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestDisqusEnabled(t *testing.T) {
	assert.False(t, DisqusSigner{}.Enabled())
	assert.True(t, DisqusSigner{SecretKey: "k"}.Enabled())
}
