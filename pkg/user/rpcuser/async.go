package rpcuser

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
)

// AsyncRPCUser is the asynchronous transport. Commits are broadcast without holding a request
// open on the node and their outcome is collected by polling with WaitFinal.
type AsyncRPCUser struct {
	rpc *RPCUser
}

var _ user.AsyncUser = (*AsyncRPCUser)(nil)

func NewAsync(rpc *RPCUser) *AsyncRPCUser {
	return &AsyncRPCUser{rpc: rpc}
}

func (a *AsyncRPCUser) ViewAccount(ctx context.Context, accountID types.AccountID) *user.Future[*types.AccountView] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.AccountView, error) { return a.rpc.ViewAccount(ctx, accountID) })
}

func (a *AsyncRPCUser) ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) *user.Future[*types.ViewStateResult] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.ViewStateResult, error) { return a.rpc.ViewState(ctx, accountID, prefix) })
}

func (a *AsyncRPCUser) AddTransaction(ctx context.Context, stx *types.SignedTransaction) *user.Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (types.CryptoHash, error) { return a.rpc.AddTransaction(ctx, stx) })
}

func (a *AsyncRPCUser) CommitTransaction(ctx context.Context, stx *types.SignedTransaction) *user.Future[*types.FinalExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.FinalExecutionOutcome, error) {
		hash, err := a.rpc.AddTransaction(ctx, stx)
		if err != nil {
			return nil, err
		}
		return a.rpc.WaitFinal(ctx, hash)
	})
}

func (a *AsyncRPCUser) GetAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) *user.Future[*types.AccessKeyView] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.AccessKeyView, error) { return a.rpc.GetAccessKey(ctx, accountID, pk) })
}

func (a *AsyncRPCUser) GetBestHeight(ctx context.Context) *user.Future[types.BlockHeight] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (types.BlockHeight, error) { return a.rpc.GetBestHeight(ctx) })
}

func (a *AsyncRPCUser) GetBestBlockHash(ctx context.Context) *user.Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (types.CryptoHash, error) { return a.rpc.GetBestBlockHash(ctx) })
}

func (a *AsyncRPCUser) GetBlock(ctx context.Context, height types.BlockHeight) *user.Future[*types.BlockView] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.BlockView, error) { return a.rpc.GetBlock(ctx, height) })
}

func (a *AsyncRPCUser) GetTransactionResult(ctx context.Context, hash types.CryptoHash) *user.Future[*types.ExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.ExecutionOutcome, error) { return a.rpc.GetTransactionResult(ctx, hash) })
}

func (a *AsyncRPCUser) GetTransactionFinalResult(ctx context.Context, hash types.CryptoHash) *user.Future[*types.FinalExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (*types.FinalExecutionOutcome, error) { return a.rpc.GetTransactionFinalResult(ctx, hash) })
}

func (a *AsyncRPCUser) GetStateRoot(ctx context.Context) *user.Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return user.Go(func() (types.CryptoHash, error) { return a.rpc.GetStateRoot(ctx) })
}

func (a *AsyncRPCUser) Signer() crypto.Signer {
	return a.rpc.Signer()
}

func (a *AsyncRPCUser) SetSigner(signer crypto.Signer) {
	a.rpc.SetSigner(signer)
}
