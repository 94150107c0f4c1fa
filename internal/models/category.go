package models

import (
	"crypto/md5"
	"encoding/hex"
)

// DefaultCategory is the always-present folder that absorbs lectures
// whose own folder was deleted. It can never be removed itself.
const DefaultCategory = "Без категории"

// Category is a named folder of lectures. The name is the identifier;
// Token is the fixed-width fingerprint used inside callback data and is
// persisted next to the name so it survives restarts.
type Category struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// CategoryToken derives the fixed-width fingerprint for a category
// name. Callback payloads cannot carry arbitrary text, so menus carry
// the fingerprint and the store keeps the reverse mapping.
func CategoryToken(name string) string {
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])[:8]
}
