package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashOwnerKey returns a path-safe namespace for an owner id, so storage keys never embed raw ids.
func HashOwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}
