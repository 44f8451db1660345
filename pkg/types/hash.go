package types

import (
	"fmt"

	"github.com/minio/blake2b-simd"
	"github.com/mr-tron/base58"
)

// CryptoHash is a blake2b-256 digest. Its text form is base58.
type CryptoHash [32]byte

// EmptyHash is the zero hash, used as the reference block hash when none is known.
var EmptyHash CryptoHash

// HashBytes returns the blake2b-256 digest of data.
func HashBytes(data []byte) CryptoHash {
	return blake2b.Sum256(data)
}

// ParseCryptoHash decodes the base58 text form of a hash.
func ParseCryptoHash(s string) (CryptoHash, error) {
	var h CryptoHash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("decode hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("hash %q has %d bytes, expected %d", s, len(raw), len(h))
	}
	copy(h[:], raw)
	return h, nil
}

func (h CryptoHash) IsEmpty() bool {
	return h == EmptyHash
}

func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

func (h CryptoHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *CryptoHash) UnmarshalText(text []byte) error {
	parsed, err := ParseCryptoHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
