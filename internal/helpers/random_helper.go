package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// RandomCode returns n random bytes as an uppercase hex string (2n chars).
func RandomCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
