package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashBytes computes the raw SHA-1 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// mirroring Git's object hashing.
func HashObject(objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// Raw returns the 20 binary bytes of a hex-encoded hash.
func (h Hash) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("decode hash %q: %w", h, err)
	}
	if len(raw) != RawHashLen {
		return nil, fmt.Errorf("decode hash %q: got %d bytes, want %d", h, len(raw), RawHashLen)
	}
	return raw, nil
}

// HashFromRaw converts 20 binary hash bytes to the hex form.
func HashFromRaw(raw []byte) Hash {
	return Hash(hex.EncodeToString(raw))
}
