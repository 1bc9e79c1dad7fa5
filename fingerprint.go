package sharingmap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/minio/blake2b-simd"
)

var defaultMarshal = json.Marshal

// Fingerprint returns a content hash of the map's logical entries, in key
// order.  Two instances with equal logical content have equal fingerprints
// regardless of how their state is split between backing store and overlay,
// so fingerprints are a cheap way to compare versions for equality.
func (m *Map) Fingerprint() (string, error) {
	effective, err := m.effectiveMap()
	if err != nil {
		return "", err
	}
	encoded, err := m.marshal(effective.Entries())
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	hashBytes := blake2b.Sum256(encoded)
	return base64.RawURLEncoding.EncodeToString(hashBytes[:]), nil
}
