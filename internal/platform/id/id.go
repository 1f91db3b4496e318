// Package id generates compact, URL-safe identifiers.
//
// Identifiers are UUIDv4 bytes encoded as unpadded lowercase base32, yielding
// a fixed 26-character string that sorts and copies cleanly in logs and URLs.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new random identifier.
func NewID() (string, error) {
	raw, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(raw[:])), nil
}
