package user

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// User is the blocking view of a node: state queries, transaction submission and the signer
// used to authorize transactions. Every method returns a *Error on failure.
type User interface {
	ViewAccount(ctx context.Context, accountID types.AccountID) (*types.AccountView, error)
	// ViewState lists the contract storage of accountID whose keys start with prefix.
	ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error)
	// AddTransaction submits stx without waiting for it to execute.
	AddTransaction(ctx context.Context, stx *types.SignedTransaction) (types.CryptoHash, error)
	// CommitTransaction submits stx and blocks until its final outcome is known.
	CommitTransaction(ctx context.Context, stx *types.SignedTransaction) (*types.FinalExecutionOutcome, error)
	GetAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error)
	GetBestHeight(ctx context.Context) (types.BlockHeight, error)
	GetBestBlockHash(ctx context.Context) (types.CryptoHash, error)
	// GetBlock returns nil and no error when there is no block at height.
	GetBlock(ctx context.Context, height types.BlockHeight) (*types.BlockView, error)
	GetTransactionResult(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error)
	GetTransactionFinalResult(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error)
	GetStateRoot(ctx context.Context) (types.CryptoHash, error)

	// Signer returns the signer operations issued now will use.
	Signer() crypto.Signer
	// SetSigner replaces the signer for operations issued after the call.
	SetSigner(signer crypto.Signer)
}

// AsyncUser mirrors User but every call returns immediately with a Future. Operations are
// never cancelled once issued, the ctx passed in only carries values. Implementations are
// safe for concurrent use.
type AsyncUser interface {
	ViewAccount(ctx context.Context, accountID types.AccountID) *Future[*types.AccountView]
	ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) *Future[*types.ViewStateResult]
	AddTransaction(ctx context.Context, stx *types.SignedTransaction) *Future[types.CryptoHash]
	CommitTransaction(ctx context.Context, stx *types.SignedTransaction) *Future[*types.FinalExecutionOutcome]
	GetAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) *Future[*types.AccessKeyView]
	GetBestHeight(ctx context.Context) *Future[types.BlockHeight]
	GetBestBlockHash(ctx context.Context) *Future[types.CryptoHash]
	GetBlock(ctx context.Context, height types.BlockHeight) *Future[*types.BlockView]
	GetTransactionResult(ctx context.Context, hash types.CryptoHash) *Future[*types.ExecutionOutcome]
	GetTransactionFinalResult(ctx context.Context, hash types.CryptoHash) *Future[*types.FinalExecutionOutcome]
	GetStateRoot(ctx context.Context) *Future[types.CryptoHash]

	Signer() crypto.Signer
	SetSigner(signer crypto.Signer)
}

// ReceiptInjector applies a receipt directly, bypassing transaction submission. It exists for
// test harnesses that simulate cross account effects and is only implemented by in-process
// test backends, never by network transports.
type ReceiptInjector interface {
	AddReceipt(ctx context.Context, receipt *types.Receipt) error
}
