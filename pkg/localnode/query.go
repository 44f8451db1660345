package localnode

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

func (n *Node) ViewAccount(ctx context.Context, accountID types.AccountID) (*types.AccountView, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	acc, err := newOverlay(ctx, n.state).getAccount(accountID)
	if err != nil || acc == nil {
		return nil, err
	}
	return &types.AccountView{
		Amount:       acc.Amount,
		Locked:       acc.Locked,
		CodeHash:     acc.CodeHash,
		StorageUsage: acc.StorageUsage,
		BlockHeight:  n.head.Height,
		BlockHash:    n.headHash,
	}, nil
}

func (n *Node) ViewAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	key, err := newOverlay(ctx, n.state).getAccessKey(accountID, pk)
	if err != nil || key == nil {
		return nil, err
	}
	return &types.AccessKeyView{
		PublicKey:   pk,
		Nonce:       key.Nonce,
		Permission:  key.Permission,
		BlockHeight: n.head.Height,
		BlockHash:   n.headHash,
	}, nil
}

func (n *Node) ViewAccessKeyList(ctx context.Context, accountID types.AccountID) ([]types.AccessKeyInfo, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	return newOverlay(ctx, n.state).accessKeys(accountID)
}

// ViewState returns nil for an account that does not exist.
func (n *Node) ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	o := newOverlay(ctx, n.state)
	acc, err := o.getAccount(accountID)
	if err != nil || acc == nil {
		return nil, err
	}
	items, err := o.viewState(accountID, prefix)
	if err != nil {
		return nil, err
	}
	return &types.ViewStateResult{
		Values:      items,
		BlockHeight: n.head.Height,
		BlockHash:   n.headHash,
	}, nil
}

// Tx returns the final outcome of an included transaction, a NotStarted outcome for a queued
// one, the rejection of one that was dropped when its block was applied and nil for an
// unknown one.
func (n *Node) Tx(ctx context.Context, hash types.CryptoHash) (*api.SubmitResult, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	f, err := n.chain.final(ctx, hash)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return &api.SubmitResult{Hash: hash, Outcome: f}, nil
	}
	if _, ok := n.pendingSet[hash]; ok {
		return &api.SubmitResult{Hash: hash, Outcome: &types.FinalExecutionOutcome{
			Status:          types.FinalExecutionStatus{Kind: types.FinalNotStarted},
			TransactionHash: hash,
		}}, nil
	}
	reason, err := n.chain.rejection(ctx, hash)
	if err != nil || reason == "" {
		return nil, err
	}
	return &api.SubmitResult{Hash: hash, Rejection: reason}, nil
}

// TxOutcome returns the outcome of a single transaction or receipt.
func (n *Node) TxOutcome(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	o, err := n.chain.outcome(ctx, hash)
	if err != nil || o == nil {
		return nil, err
	}
	return &o.Outcome, nil
}

func (n *Node) Block(ctx context.Context, height types.BlockHeight) (*types.BlockView, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	if height > n.head.Height {
		return nil, nil
	}
	b, err := n.chain.block(ctx, height)
	if err != nil || b == nil {
		return nil, err
	}
	return b.view()
}

func (n *Node) StateRoot(context.Context) (types.CryptoHash, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	return n.head.StateRoot, nil
}

func (n *Node) Status(context.Context) (*api.NodeStatus, error) {
	n.lk.RLock()
	defer n.lk.RUnlock()

	return &api.NodeStatus{
		ChainID:           n.cfg.ChainID,
		Version:           api.Version,
		LatestBlockHeight: n.head.Height,
		LatestBlockHash:   n.headHash,
		LatestStateRoot:   n.head.StateRoot,
		PendingTxs:        len(n.pending),
	}, nil
}
