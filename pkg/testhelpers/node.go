package testhelpers

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/pkg/localnode"
	"github.com/L5dxb/near-evm/pkg/types"
)

// NewTestNode starts an in-memory node holding RootAccount, AliceAccount and BobAccount.
// Blocks are produced on submission unless an option sets a BlockInterval.
func NewTestNode(t *testing.T, opts ...func(*localnode.Config)) *localnode.Node {
	cfg := localnode.Config{
		ChainID: "testnet",
		Runtime: localnode.KeyValueRuntime{},
	}
	for _, id := range []types.AccountID{RootAccount, AliceAccount, BobAccount} {
		cfg.Genesis = append(cfg.Genesis, localnode.GenesisAccount{
			AccountID: id,
			Balance:   DefaultBalance,
			PublicKey: SignerFor(id).PublicKey(),
		})
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()
	n, err := localnode.New(ctx, dss.MutexWrap(datastore.NewMapDatastore()), cfg)
	require.NoError(t, err)
	n.Start(ctx)
	t.Cleanup(func() {
		require.NoError(t, n.Close())
	})
	return n
}
