package crypto

import (
	"context"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"
)

var log = logging.Logger("crypto")

// Signer produces signatures for a single access key. Implementations may be
// backed by local key material, a remote wallet or a hardware device; callers
// treat them as opaque.
type Signer interface {
	Sign(ctx context.Context, data []byte) (*Signature, error)
	PublicKey() PublicKey
}

// InMemorySigner holds an ed25519 private key in a memguard enclave.
type InMemorySigner struct {
	secret    *memguard.Enclave
	publicKey PublicKey
}

var _ Signer = (*InMemorySigner)(nil)

// NewInMemorySignerFromSeed derives a deterministic key from seed. The seed
// bytes are copied into a zeroed 32 byte ed25519 seed, so equal seeds always
// give equal keys. Don't use this for real keys!
func NewInMemorySignerFromSeed(seed string) *InMemorySigner {
	buf := make([]byte, ed25519.SeedSize)
	copy(buf, seed)
	return newInMemorySigner(ed25519.NewKeyFromSeed(buf))
}

// GenerateInMemorySigner creates a fresh key from the given randomness source.
func GenerateInMemorySigner(rand io.Reader) (*InMemorySigner, error) {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return newInMemorySigner(priv), nil
}

// ParseSecretKey loads a signer from the "ed25519:<base58 64 bytes>" secret
// key format.
func ParseSecretKey(s string) (*InMemorySigner, error) {
	kt, data, err := splitKeyString(s)
	if err != nil {
		return nil, err
	}
	if kt != KeyTypeED25519 || len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid %s secret key", kt)
	}
	return newInMemorySigner(ed25519.PrivateKey(data)), nil
}

func newInMemorySigner(priv ed25519.PrivateKey) *InMemorySigner {
	pub := NewED25519PublicKey(priv.Public().(ed25519.PublicKey))
	// NewEnclave wipes priv.
	return &InMemorySigner{
		secret:    memguard.NewEnclave(priv),
		publicKey: pub,
	}
}

// PublicKey returns the public half of the key.
func (s *InMemorySigner) PublicKey() PublicKey {
	return s.publicKey
}

// Sign signs data with the private key.
func (s *InMemorySigner) Sign(_ context.Context, data []byte) (*Signature, error) {
	var sig []byte
	err := s.usePrivateKey(func(priv []byte) error {
		sig = ed25519.Sign(ed25519.PrivateKey(priv), data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Signature{Type: KeyTypeED25519, Data: sig}, nil
}

// SecretKey exports the private key in text form. This makes the key escape
// memguard's protection, so use caution.
func (s *InMemorySigner) SecretKey() string {
	var out string
	err := s.usePrivateKey(func(priv []byte) error {
		out = KeyTypeED25519.String() + ":" + base58.Encode(priv)
		return nil
	})
	if err != nil {
		log.Errorf("open private key failed %v", err)
		return ""
	}
	return out
}

func (s *InMemorySigner) usePrivateKey(f func([]byte) error) error {
	buf, err := s.secret.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	return f(buf.Bytes())
}
