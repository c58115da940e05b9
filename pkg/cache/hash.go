package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "kind:<sha256>" from the JSON form of parts. Render options
// are structs, so JSON gives them a stable byte form before hashing.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. The render command hashes the DOT
// source with it, so any change to positions, edges or styling yields a new
// artifact key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
