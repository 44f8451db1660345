package localnode

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/types"
)

// BroadcastTxAsync validates a signed transaction and queues it for the next block.
func (n *Node) BroadcastTxAsync(ctx context.Context, signedTx []byte) (*api.SubmitResult, error) {
	p, rej := decodePending(signedTx)
	if rej != nil {
		return &api.SubmitResult{Rejection: rej.Error()}, nil
	}

	n.lk.Lock()
	defer n.lk.Unlock()
	if rej, err := n.validateLocked(ctx, p); err != nil {
		return nil, err
	} else if rej != nil {
		log.Infow("transaction rejected", "hash", p.hash, "reason", rej)
		return &api.SubmitResult{Hash: p.hash, Rejection: rej.Error()}, nil
	}
	n.enqueueLocked(p)
	if n.cfg.BlockInterval <= 0 {
		if err := n.produceBlockLocked(ctx); err != nil {
			return nil, err
		}
	}
	return &api.SubmitResult{Hash: p.hash}, nil
}

// BroadcastTxCommit validates and queues a signed transaction, then waits until the block
// that includes it has been applied.
func (n *Node) BroadcastTxCommit(ctx context.Context, signedTx []byte) (*api.SubmitResult, error) {
	p, rej := decodePending(signedTx)
	if rej != nil {
		return &api.SubmitResult{Rejection: rej.Error()}, nil
	}

	ch := make(chan txResult, 1)
	n.lk.Lock()
	if rej, err := n.validateLocked(ctx, p); err != nil {
		n.lk.Unlock()
		return nil, err
	} else if rej != nil {
		n.lk.Unlock()
		log.Infow("transaction rejected", "hash", p.hash, "reason", rej)
		return &api.SubmitResult{Hash: p.hash, Rejection: rej.Error()}, nil
	}
	n.waiters[p.hash] = append(n.waiters[p.hash], ch)
	n.enqueueLocked(p)
	if n.cfg.BlockInterval <= 0 {
		if err := n.produceBlockLocked(ctx); err != nil {
			n.lk.Unlock()
			return nil, err
		}
	}
	n.lk.Unlock()

	select {
	case res := <-ch:
		if res.rejection != nil {
			return &api.SubmitResult{Hash: p.hash, Rejection: res.rejection.Error()}, nil
		}
		return &api.SubmitResult{Hash: p.hash, Outcome: res.outcome}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-n.closing:
		return nil, ErrClosed
	}
}

func decodePending(raw []byte) (*pendingTx, *InvalidTxError) {
	stx, err := types.DecodeSignedTransaction(raw)
	if err != nil {
		return nil, invalidTx("InvalidTransaction", "%v", err)
	}
	hash, err := stx.Hash()
	if err != nil {
		return nil, invalidTx("InvalidTransaction", "%v", err)
	}
	return &pendingTx{hash: hash, stx: stx, raw: raw}, nil
}

func (n *Node) enqueueLocked(p *pendingTx) {
	n.pending = append(n.pending, p)
	n.pendingSet[p.hash] = struct{}{}
	log.Debugw("transaction queued", "hash", p.hash, "tx", p.stx)
}

// validateLocked runs the checks that do not depend on the transactions queued before p.
// The nonce is checked against the stored key only; ordering among queued transactions is
// enforced when they are applied.
func (n *Node) validateLocked(ctx context.Context, p *pendingTx) (*InvalidTxError, error) {
	tx := &p.stx.Transaction
	if len(tx.Actions) == 0 {
		return invalidTx("InvalidTransaction", "no actions"), nil
	}
	if err := tx.SignerID.Validate(); err != nil {
		return invalidTx("InvalidSignerId", "%v", err), nil
	}
	if err := tx.ReceiverID.Validate(); err != nil {
		return invalidTx("InvalidReceiverId", "%v", err), nil
	}
	if err := p.stx.Verify(); err != nil {
		return invalidTx("InvalidSignature", "%v", err), nil
	}
	if _, ok := n.pendingSet[p.hash]; ok {
		return invalidTx("DuplicateTransaction", "%s is already queued", p.hash), nil
	}
	known, err := n.chain.hasTx(ctx, p.hash)
	if err != nil {
		return nil, err
	}
	if known {
		return invalidTx("DuplicateTransaction", "%s is already included", p.hash), nil
	}
	if !tx.BlockHash.IsEmpty() {
		ok, err := n.chain.hasBlockHash(ctx, tx.BlockHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return invalidTx("InvalidChain", "unknown block hash %s", tx.BlockHash), nil
		}
	}

	o := newOverlay(ctx, n.state)
	_, key, rej, err := checkSigner(o, tx)
	if err != nil || rej != nil {
		return rej, err
	}
	if tx.Nonce <= key.Nonce {
		return invalidTx("InvalidNonce", "nonce %d must be larger than %d", tx.Nonce, key.Nonce), nil
	}
	return nil, nil
}

// checkSigner loads the signer's account and key and checks what the key may sign.
func checkSigner(o *overlay, tx *types.Transaction) (*types.Account, *types.AccessKey, *InvalidTxError, error) {
	acc, err := o.getAccount(tx.SignerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if acc == nil {
		return nil, nil, invalidTx("SignerDoesNotExist", "%s", tx.SignerID), nil
	}
	key, err := o.getAccessKey(tx.SignerID, tx.PublicKey)
	if err != nil {
		return nil, nil, nil, err
	}
	if key == nil {
		return nil, nil, invalidTx("AccessKeyNotFound", "%s has no key %s", tx.SignerID, tx.PublicKey), nil
	}
	if rej := checkPermission(key, tx); rej != nil {
		return nil, nil, rej, nil
	}
	return acc, key, nil, nil
}

// checkPermission enforces function call keys: a single FunctionCall without deposit to the
// permitted receiver and method.
func checkPermission(key *types.AccessKey, tx *types.Transaction) *InvalidTxError {
	perm := key.Permission.FunctionCall
	if perm == nil {
		return nil
	}
	if len(tx.Actions) != 1 {
		return invalidTx("RequiresFullAccess", "function call key can sign a single action")
	}
	call, ok := tx.Actions[0].(*types.FunctionCallAction)
	if !ok {
		return invalidTx("RequiresFullAccess", "function call key cannot sign %s", tx.Actions[0].Kind())
	}
	if !call.Deposit.IsZero() {
		return invalidTx("DepositWithFunctionCall", "function call key cannot attach a deposit")
	}
	if tx.ReceiverID != perm.ReceiverID {
		return invalidTx("ReceiverMismatch", "key is restricted to %s", perm.ReceiverID)
	}
	if !perm.AllowsMethod(call.MethodName) {
		return invalidTx("MethodNameMismatch", "key does not allow %s", call.MethodName)
	}
	return nil
}
