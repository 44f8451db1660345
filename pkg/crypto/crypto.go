package crypto

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
)

// KeyType identifies the curve a key belongs to.
type KeyType uint8

const (
	KeyTypeED25519 KeyType = 0
)

const ed25519Prefix = "ed25519"

func (kt KeyType) String() string {
	switch kt {
	case KeyTypeED25519:
		return ed25519Prefix
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kt))
	}
}

// ParseKeyType is the inverse of KeyType.String.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case ed25519Prefix:
		return KeyTypeED25519, nil
	default:
		return 0, fmt.Errorf("unknown key type %q", s)
	}
}

//
// Public keys
//

// PublicKey is the public half of an access key. Its text form is
// "<type>:<base58 data>", e.g. "ed25519:6E8sCci9badyRkXb3JoRpBj5p8C6Tw41ELDZoiihKEtp".
type PublicKey struct {
	_ struct{} `cbor:",toarray"`

	Type KeyType
	Data []byte
}

// NewED25519PublicKey wraps raw ed25519 public key bytes.
func NewED25519PublicKey(data []byte) PublicKey {
	return PublicKey{Type: KeyTypeED25519, Data: append([]byte(nil), data...)}
}

// ParsePublicKey parses the text form of a public key. A missing type prefix
// means ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	kt, data, err := splitKeyString(s)
	if err != nil {
		return PublicKey{}, err
	}
	if len(data) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("invalid %s public key length %d", kt, len(data))
	}
	return PublicKey{Type: kt, Data: data}, nil
}

// MustParsePublicKey is ParsePublicKey for constants and tests.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// Empty reports whether the key carries no data.
func (pk PublicKey) Empty() bool {
	return len(pk.Data) == 0
}

// Equals compares type and key bytes.
func (pk PublicKey) Equals(other PublicKey) bool {
	return pk.Type == other.Type && bytes.Equal(pk.Data, other.Data)
}

func (pk PublicKey) String() string {
	return pk.Type.String() + ":" + base58.Encode(pk.Data)
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

func splitKeyString(s string) (KeyType, []byte, error) {
	kt := KeyTypeED25519
	encoded := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		var err error
		kt, err = ParseKeyType(s[:idx])
		if err != nil {
			return 0, nil, err
		}
		encoded = s[idx+1:]
	}
	data, err := base58.Decode(encoded)
	if err != nil {
		return 0, nil, fmt.Errorf("decode key %q: %w", s, err)
	}
	return kt, data, nil
}
