package crypto_test

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/pkg/crypto"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
)

func TestSignerFromSeedIsDeterministic(t *testing.T) {
	tf.UnitTest(t)

	a := crypto.NewInMemorySignerFromSeed("alice.near")
	b := crypto.NewInMemorySignerFromSeed("alice.near")
	c := crypto.NewInMemorySignerFromSeed("bob.near")

	assert.True(t, a.PublicKey().Equals(b.PublicKey()))
	assert.False(t, a.PublicKey().Equals(c.PublicKey()))
	assert.Equal(t, crypto.KeyTypeED25519, a.PublicKey().Type)
	assert.Len(t, a.PublicKey().Data, 32)
}

func TestSignAndVerify(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	signer, err := crypto.GenerateInMemorySigner(rand.Reader)
	require.NoError(t, err)

	msg := []byte("data to be signed")
	sig, err := signer.Sign(ctx, msg)
	require.NoError(t, err)
	assert.Len(t, sig.Data, 64)

	assert.NoError(t, crypto.Verify(sig, msg, signer.PublicKey()))

	// different message
	assert.ErrorIs(t, crypto.Verify(sig, msg[3:], signer.PublicKey()), crypto.ErrInvalidSignature)

	// different key
	other := crypto.NewInMemorySignerFromSeed("other")
	assert.ErrorIs(t, crypto.Verify(sig, msg, other.PublicKey()), crypto.ErrInvalidSignature)

	// truncated signature
	short := &crypto.Signature{Type: crypto.KeyTypeED25519, Data: sig.Data[:29]}
	assert.Error(t, crypto.Verify(short, msg, signer.PublicKey()))

	assert.Error(t, crypto.Verify(nil, msg, signer.PublicKey()))
}

func TestPublicKeyText(t *testing.T) {
	tf.UnitTest(t)

	pk := crypto.NewInMemorySignerFromSeed("test.near").PublicKey()
	s := pk.String()
	assert.Contains(t, s, "ed25519:")

	parsed, err := crypto.ParsePublicKey(s)
	require.NoError(t, err)
	assert.True(t, pk.Equals(parsed))

	// the type prefix is optional
	bare, err := crypto.ParsePublicKey(s[len("ed25519:"):])
	require.NoError(t, err)
	assert.True(t, pk.Equals(bare))

	_, err = crypto.ParsePublicKey("secp256k1:abc")
	assert.Error(t, err)
	_, err = crypto.ParsePublicKey("ed25519:abc")
	assert.Error(t, err)

	raw, err := json.Marshal(map[string]crypto.PublicKey{"key": pk})
	require.NoError(t, err)
	assert.Equal(t, `{"key":"`+s+`"}`, string(raw))

	var out map[string]crypto.PublicKey
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, pk.Equals(out["key"]))
}

func TestSecretKeyRoundTrip(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	signer := crypto.NewInMemorySignerFromSeed("roundtrip")
	loaded, err := crypto.ParseSecretKey(signer.SecretKey())
	require.NoError(t, err)
	assert.True(t, signer.PublicKey().Equals(loaded.PublicKey()))

	sig, err := loaded.Sign(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.NoError(t, crypto.Verify(sig, []byte("hello"), signer.PublicKey()))

	_, err = crypto.ParseSecretKey("ed25519:abc")
	assert.Error(t, err)
}
