package user

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

type asyncAdapter struct {
	user User
}

var _ AsyncUser = (*asyncAdapter)(nil)

// NewAsyncAdapter runs each call of a blocking User on its own goroutine.
func NewAsyncAdapter(u User) AsyncUser {
	return &asyncAdapter{user: u}
}

func (a *asyncAdapter) ViewAccount(ctx context.Context, accountID types.AccountID) *Future[*types.AccountView] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.AccountView, error) { return a.user.ViewAccount(ctx, accountID) })
}

func (a *asyncAdapter) ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) *Future[*types.ViewStateResult] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.ViewStateResult, error) { return a.user.ViewState(ctx, accountID, prefix) })
}

func (a *asyncAdapter) AddTransaction(ctx context.Context, stx *types.SignedTransaction) *Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (types.CryptoHash, error) { return a.user.AddTransaction(ctx, stx) })
}

func (a *asyncAdapter) CommitTransaction(ctx context.Context, stx *types.SignedTransaction) *Future[*types.FinalExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.FinalExecutionOutcome, error) { return a.user.CommitTransaction(ctx, stx) })
}

func (a *asyncAdapter) GetAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) *Future[*types.AccessKeyView] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.AccessKeyView, error) { return a.user.GetAccessKey(ctx, accountID, pk) })
}

func (a *asyncAdapter) GetBestHeight(ctx context.Context) *Future[types.BlockHeight] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (types.BlockHeight, error) { return a.user.GetBestHeight(ctx) })
}

func (a *asyncAdapter) GetBestBlockHash(ctx context.Context) *Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (types.CryptoHash, error) { return a.user.GetBestBlockHash(ctx) })
}

func (a *asyncAdapter) GetBlock(ctx context.Context, height types.BlockHeight) *Future[*types.BlockView] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.BlockView, error) { return a.user.GetBlock(ctx, height) })
}

func (a *asyncAdapter) GetTransactionResult(ctx context.Context, hash types.CryptoHash) *Future[*types.ExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.ExecutionOutcome, error) { return a.user.GetTransactionResult(ctx, hash) })
}

func (a *asyncAdapter) GetTransactionFinalResult(ctx context.Context, hash types.CryptoHash) *Future[*types.FinalExecutionOutcome] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (*types.FinalExecutionOutcome, error) { return a.user.GetTransactionFinalResult(ctx, hash) })
}

func (a *asyncAdapter) GetStateRoot(ctx context.Context) *Future[types.CryptoHash] {
	ctx = context.WithoutCancel(ctx)
	return Go(func() (types.CryptoHash, error) { return a.user.GetStateRoot(ctx) })
}

func (a *asyncAdapter) Signer() crypto.Signer {
	return a.user.Signer()
}

func (a *asyncAdapter) SetSigner(signer crypto.Signer) {
	a.user.SetSigner(signer)
}
