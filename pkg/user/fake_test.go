package user_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
)

var errUnavailable = errors.New("unavailable")

// fakeUser records every submitted transaction and accepts it when its nonce is exactly one
// above the key's nonce, like a node would.
type fakeUser struct {
	signer *user.SignerHandle

	mu        sync.Mutex
	nonces    map[string]types.Nonce
	blockHash types.CryptoHash
	committed []*types.SignedTransaction
	accounts  map[types.AccountID]*types.AccountView
	blocks    map[types.BlockHeight]*types.BlockView

	// staleKeys makes GetAccessKey report nonce 0 whatever the key is at.
	staleKeys bool
	// noChain makes GetBestBlockHash and GetAccessKey fail.
	noChain bool
	// dropNext makes the next accepted transaction get dropped afterwards, the way a node
	// drops one it cannot pay for when the block is applied. Its nonce stays unused.
	dropNext bool
	dropped  map[types.CryptoHash]string
}

var _ user.User = (*fakeUser)(nil)

func newFakeUser(signer crypto.Signer) *fakeUser {
	return &fakeUser{
		signer:    user.NewSignerHandle(signer),
		nonces:    make(map[string]types.Nonce),
		blockHash: types.HashBytes([]byte("best block")),
		accounts:  make(map[types.AccountID]*types.AccountView),
		blocks:    make(map[types.BlockHeight]*types.BlockView),
		dropped:   make(map[types.CryptoHash]string),
	}
}

func keyOf(id types.AccountID, pk crypto.PublicKey) string {
	return string(id) + "/" + pk.String()
}

func (f *fakeUser) setNonce(id types.AccountID, pk crypto.PublicKey, n types.Nonce) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonces[keyOf(id, pk)] = n
}

func (f *fakeUser) transactions() []*types.SignedTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.SignedTransaction(nil), f.committed...)
}

func (f *fakeUser) last() *types.SignedTransaction {
	txs := f.transactions()
	if len(txs) == 0 {
		return nil
	}
	return txs[len(txs)-1]
}

func (f *fakeUser) ViewAccount(_ context.Context, accountID types.AccountID) (*types.AccountView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[accountID]
	if !ok {
		return nil, user.NotFound("view account", string(accountID))
	}
	return acc, nil
}

func (f *fakeUser) ViewState(_ context.Context, accountID types.AccountID, _ []byte) (*types.ViewStateResult, error) {
	return nil, user.NotFound("view state", string(accountID))
}

func (f *fakeUser) submit(stx *types.SignedTransaction) (types.CryptoHash, error) {
	if err := stx.Verify(); err != nil {
		return types.EmptyHash, user.Rejection("submit", err.Error())
	}
	tx := &stx.Transaction
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(tx.SignerID, tx.PublicKey)
	if tx.Nonce != f.nonces[k]+1 {
		return types.EmptyHash, user.Rejection("submit", fmt.Sprintf("InvalidNonce: %d after %d", tx.Nonce, f.nonces[k]))
	}
	hash, err := stx.Hash()
	if err != nil {
		return types.EmptyHash, user.Rejection("submit", err.Error())
	}
	if f.dropNext {
		f.dropNext = false
		f.dropped[hash] = "NotEnoughBalance"
		return hash, nil
	}
	f.nonces[k] = tx.Nonce
	f.committed = append(f.committed, stx)
	return hash, nil
}

func (f *fakeUser) AddTransaction(_ context.Context, stx *types.SignedTransaction) (types.CryptoHash, error) {
	return f.submit(stx)
}

func (f *fakeUser) CommitTransaction(_ context.Context, stx *types.SignedTransaction) (*types.FinalExecutionOutcome, error) {
	hash, err := f.submit(stx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	reason, dropped := f.dropped[hash]
	f.mu.Unlock()
	if dropped {
		return nil, user.Rejection("commit", reason)
	}
	return &types.FinalExecutionOutcome{
		Status:          types.FinalExecutionStatus{Kind: types.FinalSuccessValue},
		TransactionHash: hash,
	}, nil
}

func (f *fakeUser) GetAccessKey(_ context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noChain {
		return nil, user.NewError(user.KindTransport, "get access key", errUnavailable)
	}
	n := f.nonces[keyOf(accountID, pk)]
	if f.staleKeys {
		n = 0
	}
	return &types.AccessKeyView{PublicKey: pk, Nonce: n, Permission: types.FullAccess()}, nil
}

func (f *fakeUser) GetBestHeight(context.Context) (types.BlockHeight, error) {
	return 1, nil
}

func (f *fakeUser) GetBestBlockHash(context.Context) (types.CryptoHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noChain {
		return types.EmptyHash, user.NewError(user.KindTransport, "get best block hash", errUnavailable)
	}
	return f.blockHash, nil
}

func (f *fakeUser) GetBlock(_ context.Context, height types.BlockHeight) (*types.BlockView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocks[height], nil
}

func (f *fakeUser) GetTransactionResult(_ context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error) {
	return nil, user.NotFound("get transaction result", hash.String())
}

func (f *fakeUser) GetTransactionFinalResult(_ context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error) {
	const op = "get transaction final result"
	f.mu.Lock()
	defer f.mu.Unlock()
	if reason, ok := f.dropped[hash]; ok {
		return nil, user.Rejection(op, reason)
	}
	for _, stx := range f.committed {
		if h, _ := stx.Hash(); h == hash {
			return &types.FinalExecutionOutcome{
				Status:          types.FinalExecutionStatus{Kind: types.FinalSuccessValue},
				TransactionHash: hash,
			}, nil
		}
	}
	return nil, user.NotFound(op, hash.String())
}

func (f *fakeUser) GetStateRoot(context.Context) (types.CryptoHash, error) {
	return types.EmptyHash, nil
}

func (f *fakeUser) Signer() crypto.Signer {
	return f.signer.Get()
}

func (f *fakeUser) SetSigner(signer crypto.Signer) {
	f.signer.Set(signer)
}
