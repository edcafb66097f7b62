package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
)

// TokenSecretBytes encodes to exactly 40 url-safe characters.
const TokenSecretBytes = 30

func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	// err == nil only if we read len(b) bytes.
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex sha256 digest stored for a token secret.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// CompareTokenHash compares a secret against a stored digest in constant time.
func CompareTokenHash(secret, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(secret)), []byte(hash)) == 1
}

// FormatToken builds the plaintext token handed to the client.
func FormatToken(id int64, secret string) string {
	return strconv.FormatInt(id, 10) + "|" + secret
}

// SplitToken parses "<id>|<secret>".
func SplitToken(token string) (int64, string, bool) {
	idPart, secret, found := strings.Cut(token, "|")
	if !found || secret == "" {
		return 0, "", false
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, secret, true
}
