package testhelpers

import (
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// Accounts created by NewTestNode. Each is controlled by the key derived from its own name.
const (
	RootAccount  types.AccountID = "test.near"
	AliceAccount types.AccountID = "alice.near"
	BobAccount   types.AccountID = "bob.near"
)

// DefaultBalance funds every genesis account of a test node.
var DefaultBalance = types.MustParseBalance("1000000000000000000000000000")

// SignerFor returns the deterministic signer of a test account.
func SignerFor(id types.AccountID) *crypto.InMemorySigner {
	return crypto.NewInMemorySignerFromSeed(string(id))
}
