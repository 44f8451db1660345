package api

import (
	"context"

	"github.com/filecoin-project/go-jsonrpc/auth"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// FullNode is the node API a client needs to build and submit transactions. Lookups of
// things that do not exist return a nil result and no error. A transaction the node refuses
// is reported in SubmitResult.Rejection, errors are reserved for failures to answer.
type FullNode interface {
	ViewAccount(ctx context.Context, accountID types.AccountID) (*types.AccountView, error)                          //perm:read
	ViewAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) //perm:read
	ViewAccessKeyList(ctx context.Context, accountID types.AccountID) ([]types.AccessKeyInfo, error)                 //perm:read
	ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error)         //perm:read

	// BroadcastTxAsync queues a serialized SignedTransaction and returns once it has been
	// accepted or rejected.
	BroadcastTxAsync(ctx context.Context, signedTx []byte) (*SubmitResult, error) //perm:write
	// BroadcastTxCommit queues a serialized SignedTransaction and waits for its final outcome.
	BroadcastTxCommit(ctx context.Context, signedTx []byte) (*SubmitResult, error) //perm:write

	// Tx reports what became of a transaction: its outcome so far, or why it was dropped.
	Tx(ctx context.Context, hash types.CryptoHash) (*SubmitResult, error)                  //perm:read
	TxOutcome(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error) //perm:read
	Block(ctx context.Context, height types.BlockHeight) (*types.BlockView, error)         //perm:read
	StateRoot(ctx context.Context) (types.CryptoHash, error)                               //perm:read
	Status(ctx context.Context) (*NodeStatus, error)                                       //perm:read
}

// SubmitResult is the answer to a broadcast or a Tx lookup. Exactly one of Rejection and
// (for commits and lookups) Outcome is set.
type SubmitResult struct {
	Hash      types.CryptoHash
	Outcome   *types.FinalExecutionOutcome `json:",omitempty"`
	Rejection string                       `json:",omitempty"`
}

func (r *SubmitResult) Rejected() bool {
	return r.Rejection != ""
}

type NodeStatus struct {
	ChainID           string
	Version           string
	LatestBlockHeight types.BlockHeight
	LatestBlockHash   types.CryptoHash
	LatestStateRoot   types.CryptoHash
	PendingTxs        int
}

// FullNodeStruct is the JSON-RPC proxy for FullNode. Clients fill Internal through
// jsonrpc.NewClient, servers through PermissionedFullNode.
type FullNodeStruct struct {
	Internal struct {
		ViewAccount       func(ctx context.Context, accountID types.AccountID) (*types.AccountView, error)                        `perm:"read"`
		ViewAccessKey     func(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) `perm:"read"`
		ViewAccessKeyList func(ctx context.Context, accountID types.AccountID) ([]types.AccessKeyInfo, error)                     `perm:"read"`
		ViewState         func(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error)     `perm:"read"`
		BroadcastTxAsync  func(ctx context.Context, signedTx []byte) (*SubmitResult, error)                                       `perm:"write"`
		BroadcastTxCommit func(ctx context.Context, signedTx []byte) (*SubmitResult, error)                                       `perm:"write"`
		Tx                func(ctx context.Context, hash types.CryptoHash) (*SubmitResult, error)                                 `perm:"read"`
		TxOutcome         func(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error)                       `perm:"read"`
		Block             func(ctx context.Context, height types.BlockHeight) (*types.BlockView, error)                           `perm:"read"`
		StateRoot         func(ctx context.Context) (types.CryptoHash, error)                                                     `perm:"read"`
		Status            func(ctx context.Context) (*NodeStatus, error)                                                          `perm:"read"`
	}
}

var _ FullNode = (*FullNodeStruct)(nil)

// PermissionedFullNode exposes exactly the FullNode methods of impl, whatever else impl
// offers. Each method first checks the caller's permissions, as put on the request context
// by auth.Handler, against its perm tag. A caller without a token has defaultPerms.
func PermissionedFullNode(impl FullNode, defaultPerms []auth.Permission) *FullNodeStruct {
	var out FullNodeStruct
	auth.PermissionedProxy(AllPermissions, defaultPerms, impl, &out.Internal)
	return &out
}

func (s *FullNodeStruct) ViewAccount(ctx context.Context, accountID types.AccountID) (*types.AccountView, error) {
	return s.Internal.ViewAccount(ctx, accountID)
}

func (s *FullNodeStruct) ViewAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) {
	return s.Internal.ViewAccessKey(ctx, accountID, pk)
}

func (s *FullNodeStruct) ViewAccessKeyList(ctx context.Context, accountID types.AccountID) ([]types.AccessKeyInfo, error) {
	return s.Internal.ViewAccessKeyList(ctx, accountID)
}

func (s *FullNodeStruct) ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error) {
	return s.Internal.ViewState(ctx, accountID, prefix)
}

func (s *FullNodeStruct) BroadcastTxAsync(ctx context.Context, signedTx []byte) (*SubmitResult, error) {
	return s.Internal.BroadcastTxAsync(ctx, signedTx)
}

func (s *FullNodeStruct) BroadcastTxCommit(ctx context.Context, signedTx []byte) (*SubmitResult, error) {
	return s.Internal.BroadcastTxCommit(ctx, signedTx)
}

func (s *FullNodeStruct) Tx(ctx context.Context, hash types.CryptoHash) (*SubmitResult, error) {
	return s.Internal.Tx(ctx, hash)
}

func (s *FullNodeStruct) TxOutcome(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error) {
	return s.Internal.TxOutcome(ctx, hash)
}

func (s *FullNodeStruct) Block(ctx context.Context, height types.BlockHeight) (*types.BlockView, error) {
	return s.Internal.Block(ctx, height)
}

func (s *FullNodeStruct) StateRoot(ctx context.Context) (types.CryptoHash, error) {
	return s.Internal.StateRoot(ctx)
}

func (s *FullNodeStruct) Status(ctx context.Context) (*NodeStatus, error) {
	return s.Internal.Status(ctx)
}
