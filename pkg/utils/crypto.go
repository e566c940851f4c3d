package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateLoginCode generates a 6-digit numeric code. Each digit is drawn
// independently so the result is uniform over 000000-999999 and leading
// zeros are preserved.
func GenerateLoginCode() (string, error) {
	code := ""
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}

// HashCredential returns the hex SHA-256 of a session credential. Sessions
// are persisted under this hash; the raw credential never touches storage.
func HashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}
