package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
)

// ErrInvalidSignature is returned by Verify when the signature does not match.
var ErrInvalidSignature = errors.New("invalid signature")

// Signature is a signature over a transaction hash, tagged with the curve
// that produced it.
type Signature struct {
	_ struct{} `cbor:",toarray"`

	Type KeyType
	Data []byte
}

// Equals compares type and signature bytes.
func (s *Signature) Equals(other *Signature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Type == other.Type && bytes.Equal(s.Data, other.Data)
}

func (s Signature) String() string {
	return s.Type.String() + ":" + base58.Encode(s.Data)
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	kt, data, err := splitKeyString(string(text))
	if err != nil {
		return err
	}
	s.Type, s.Data = kt, data
	return nil
}

// Verify cryptographically checks that sig was produced over data by the
// private key belonging to pk.
func Verify(sig *Signature, data []byte, pk PublicKey) error {
	if sig == nil {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}
	if sig.Type != pk.Type {
		return fmt.Errorf("%w: signature type %s does not match key type %s", ErrInvalidSignature, sig.Type, pk.Type)
	}
	switch pk.Type {
	case KeyTypeED25519:
		if len(pk.Data) != ed25519.PublicKeySize || len(sig.Data) != ed25519.SignatureSize {
			return fmt.Errorf("%w: malformed ed25519 key or signature", ErrInvalidSignature)
		}
		if !ed25519.Verify(ed25519.PublicKey(pk.Data), data, sig.Data) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("unsupported key type %s", pk.Type)
	}
}
