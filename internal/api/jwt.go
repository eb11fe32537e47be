package api

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/20q2/5e-combat-simulator-sub003/internal/constants"
)

// sessionClaims is the payload of the HS256 session token issued after the
// OAuth callback.
type sessionClaims struct {
	Sub  string `json:"sub"` // player email
	Name string `json:"name"`
	Iat  int64  `json:"iat"`
	Exp  int64  `json:"exp"`
}

var errInvalidSession = errors.New("invalid session token")

// fallbackSecret backs sessions when SESSION_SECRET is unset. It is
// regenerated on every restart, so dev logins do not survive one.
var fallbackSecret []byte

func sessionSecret() ([]byte, error) {
	if secret := os.Getenv(constants.EnvSessionSecret); secret != "" {
		return []byte(secret), nil
	}
	if len(fallbackSecret) == 0 {
		fallbackSecret = make([]byte, 32)
		if _, err := crand.Read(fallbackSecret); err != nil {
			return nil, errors.New("failed to generate fallback session secret")
		}
	}
	return fallbackSecret, nil
}

func encodeSegment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

func sign(payload string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return encodeSegment(mac.Sum(nil))
}

// issueSessionToken mints a signed session token for the given player.
func issueSessionToken(email, name string, ttl time.Duration) (string, error) {
	secret, err := sessionSecret()
	if err != nil {
		return "", err
	}
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	now := time.Now().Unix()
	payload, _ := json.Marshal(sessionClaims{Sub: email, Name: name, Iat: now, Exp: now + int64(ttl.Seconds())})
	unsigned := encodeSegment(header) + "." + encodeSegment(payload)
	return unsigned + "." + sign(unsigned, secret), nil
}

// verifySessionToken checks the signature and expiry and returns the claims.
func verifySessionToken(token string) (*sessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errInvalidSession
	}
	secret, err := sessionSecret()
	if err != nil {
		return nil, err
	}
	unsigned := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(sign(unsigned, secret)), []byte(parts[2])) {
		return nil, errInvalidSession
	}
	payloadBytes, err := decodeSegment(parts[1])
	if err != nil {
		return nil, errInvalidSession
	}
	var claims sessionClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errInvalidSession
	}
	if time.Now().Unix() > claims.Exp {
		return nil, errors.New("session expired")
	}
	return &claims, nil
}
