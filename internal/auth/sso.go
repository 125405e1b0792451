package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"phillyrising/domain"
)

// DisqusSigner produces the single-sign-on auth string Disqus embeds
// expect: "base64(payload) hmacSHA1hex(payload + ' ' + ts) ts".
type DisqusSigner struct {
	SecretKey  string
	Uniquifier string
}

// Sign builds the SSO string for a logged-in profile. A nil profile
// yields the anonymous payload, which signs an empty object.
func (d DisqusSigner) Sign(p *domain.Profile, now time.Time) string {
	data := map[string]string{}
	if p != nil {
		data = map[string]string{
			"id":       p.ID + d.Uniquifier,
			"username": p.Username,
			"email":    p.Email,
			"avatar":   p.AvatarURL,
		}
	}
	raw, _ := json.Marshal(data)
	message := base64.StdEncoding.EncodeToString(raw)
	ts := now.Unix()

	mac := hmac.New(sha1.New, []byte(d.SecretKey))
	fmt.Fprintf(mac, "%s %d", message, ts)
	signature := hex.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("%s %s %d", message, signature, ts)
}

// Enabled reports whether SSO signing is configured.
func (d DisqusSigner) Enabled() bool { return d.SecretKey != "" }
