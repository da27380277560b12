package tenants

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// newToken returns the public "<selector>.<verifier>" token and the bcrypt hash of
// the verifier that is stored.
func newToken() (selector, token, hash string, err error) {
	sel := make([]byte, 12)
	if _, err = rand.Read(sel); err != nil {
		return "", "", "", err
	}
	ver := make([]byte, 32)
	if _, err = rand.Read(ver); err != nil {
		return "", "", "", err
	}
	selector = hex.EncodeToString(sel)
	verifier := base64.RawURLEncoding.EncodeToString(ver)
	h, err := bcrypt.GenerateFromPassword([]byte(verifier), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", err
	}
	return selector, selector + "." + verifier, string(h), nil
}

func splitToken(token string) (selector, verifier string, ok bool) {
	selector, verifier, ok = strings.Cut(strings.TrimSpace(token), ".")
	if !ok || selector == "" || verifier == "" {
		return "", "", false
	}
	return selector, verifier, true
}

func verify(hash, verifier string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(verifier)) == nil
}
