package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// statePayload is what rides inside the OAuth2 state parameter.
type statePayload struct {
	Provider     string `json:"p"`
	Neighborhood string `json:"n"`
	Nonce        string `json:"x"`
	Expires      int64  `json:"e"`
}

// stateCodec signs and verifies state parameters so a callback can't be
// forged or replayed past its expiry.
type stateCodec struct {
	secret []byte
}

func newStateCodec(secret []byte) *stateCodec {
	if len(secret) == 0 {
		// Ephemeral secret: states survive only this process, which is
		// all an unconfigured development setup needs.
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &stateCodec{secret: secret}
}

func (c *stateCodec) sign(p statePayload) (string, error) {
	if p.Nonce == "" {
		var nonce [8]byte
		_, _ = rand.Read(nonce[:])
		p.Nonce = hex.EncodeToString(nonce[:])
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	msg := base64.RawURLEncoding.EncodeToString(raw)
	return msg + "." + c.mac(msg), nil
}

var ErrBadState = errors.New("invalid state parameter")

func (c *stateCodec) verify(state string) (statePayload, error) {
	msg, sig, found := strings.Cut(state, ".")
	if !found {
		return statePayload{}, ErrBadState
	}
	if !hmac.Equal([]byte(sig), []byte(c.mac(msg))) {
		return statePayload{}, ErrBadState
	}
	raw, err := base64.RawURLEncoding.DecodeString(msg)
	if err != nil {
		return statePayload{}, ErrBadState
	}
	var p statePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return statePayload{}, ErrBadState
	}
	if p.Expires < time.Now().Unix() {
		return statePayload{}, errors.New("state expired")
	}
	return p, nil
}

func (c *stateCodec) mac(msg string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}
