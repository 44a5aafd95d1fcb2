// Package secret generates cryptographically random secrets.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RootPasswordBytes is the entropy used for instance root passwords.
// 16 random bytes hex-encoded yields a 32 character password.
const RootPasswordBytes = 16

// Hex returns n random bytes hex-encoded.
func Hex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RootPassword generates a fresh root password for a provisioning request.
// The password is never stored or surfaced; it exists only because the
// provisioning API requires an initial secret.
func RootPassword() (string, error) {
	return Hex(RootPasswordBytes)
}
