// Package codec centralizes record encoding.
//
// Memlog treats codec selection as a breaking-change boundary: segments and
// index snapshots written by one codec may not decode under another. The
// line format itself is always JSON (one object per line); the Codec
// interface exists so snapshot sections and auxiliary payloads can share an
// encoding strategy.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}
