// Package core derives content identifiers and integrity checksums.
//
// The two hashes serve different purposes and intentionally use different
// algorithms: the identifier is derived from (type, payload) so that
// identical logical content collides onto the same id (idempotent insert by
// content), while the checksum covers the payload alone and exists for
// tamper/corruption detection. Provenance-only metadata changes therefore
// never move a record's identity, but any payload change flips its checksum.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/hupe1980/memlog/model"
)

// IDLength is the length of a derived identifier in hex characters.
const IDLength = 16

// DeriveID computes the deterministic content identifier for a
// (type, payload) pair. encoding/json marshals map keys in sorted order,
// which gives a canonical serialization independent of insertion order.
func DeriveID(t model.RecordType, payload map[string]any) (string, error) {
	content := struct {
		Type model.RecordType `json:"type"`
		Data map[string]any   `json:"data"`
	}{Type: t, Data: payload}

	b, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("derive id: %w", err)
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:IDLength], nil
}

// Checksum computes the integrity hash of a payload.
func Checksum(payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}

	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
