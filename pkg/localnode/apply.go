package localnode

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/metrics"
	"github.com/L5dxb/near-evm/pkg/types"
)

const (
	txConversionGas types.Gas = 108_059_500_000
	actionGas       types.Gas = 115_123_062_500
)

// txExecution follows one transaction through the block.
type txExecution struct {
	hash     types.CryptoHash
	outcome  *types.ExecutionOutcomeWithID
	receipts []*types.ExecutionOutcomeWithID
}

type queuedReceipt struct {
	receipt *types.Receipt
	// tx is nil for injected receipts.
	tx *txExecution
}

type rejectedTx struct {
	hash types.CryptoHash
	err  *InvalidTxError
}

// blockExecutor applies the transactions and receipts of one block.
type blockExecutor struct {
	n      *Node
	ctx    context.Context
	height types.BlockHeight
	w      *blockWriter

	queue    []*queuedReceipt
	outcomes []*types.ExecutionOutcomeWithID
	included []*txExecution
	rejected []rejectedTx
	receipts []types.CryptoHash
}

// produceBlockLocked applies queued transactions in arrival order, then injected receipts,
// then every receipt those produce, and appends the block. Caller holds n.lk.
func (n *Node) produceBlockLocked(ctx context.Context) error {
	sw := metrics.BlockApplyDuration.Start(ctx)
	defer sw.Stop(ctx)

	txs, injected := n.pending, n.injected
	n.pending, n.injected = nil, nil
	n.pendingSet = make(map[types.CryptoHash]struct{})

	w, err := n.chain.newWriter(ctx)
	if err != nil {
		return err
	}
	ex := &blockExecutor{n: n, ctx: ctx, height: n.head.Height + 1, w: w}

	for _, p := range txs {
		if err := ex.applyTransaction(p); err != nil {
			return xerrors.Errorf("apply transaction %s: %w", p.hash, err)
		}
	}
	for _, r := range injected {
		ex.queue = append(ex.queue, &queuedReceipt{receipt: r})
	}
	for len(ex.queue) > 0 {
		q := ex.queue[0]
		ex.queue = ex.queue[1:]
		if err := ex.applyReceipt(q); err != nil {
			return xerrors.Errorf("apply receipt %s: %w", q.receipt.ReceiptID, err)
		}
	}

	root, err := stateRoot(ctx, n.state)
	if err != nil {
		return err
	}
	b := &block{
		Height:    ex.height,
		PrevHash:  n.headHash,
		StateRoot: root,
		Timestamp: uint64(n.clock.Now().UnixNano()),
	}
	for _, t := range ex.included {
		b.Transactions = append(b.Transactions, t.hash)
	}
	b.Receipts = ex.receipts
	hash, err := b.hash()
	if err != nil {
		return err
	}

	for _, o := range ex.outcomes {
		o.BlockHash = hash
		if err := w.putOutcome(o); err != nil {
			return err
		}
	}
	finals := make([]*types.FinalExecutionOutcome, 0, len(ex.included))
	for _, t := range ex.included {
		f := t.final()
		if err := w.putFinal(f); err != nil {
			return err
		}
		finals = append(finals, f)
	}
	for _, r := range ex.rejected {
		if err := w.putRejection(r.hash, r.err); err != nil {
			return err
		}
	}
	if err := w.putBlock(b, hash); err != nil {
		return err
	}
	if err := w.commit(); err != nil {
		return xerrors.Errorf("commit block %d: %w", b.Height, err)
	}
	n.head, n.headHash = b, hash

	for _, f := range finals {
		n.notify(f.TransactionHash, txResult{outcome: f})
	}
	for _, r := range ex.rejected {
		n.notify(r.hash, txResult{rejection: r.err})
	}

	metrics.BlocksProduced.Inc(ctx, 1)
	metrics.ReceiptsApplied.Inc(ctx, int64(len(ex.receipts)))
	if ce := log.Desugar().Check(zap.DebugLevel, "block produced"); ce != nil {
		ce.Write(
			zap.Uint64("height", uint64(b.Height)),
			zap.Stringer("hash", hash),
			zap.Int("txs", len(b.Transactions)),
			zap.Int("receipts", len(b.Receipts)),
			zap.Int("rejected", len(ex.rejected)),
		)
	}
	return nil
}

func (n *Node) notify(hash types.CryptoHash, res txResult) {
	for _, ch := range n.waiters[hash] {
		ch <- res
	}
	delete(n.waiters, hash)
}

// applyTransaction converts a transaction into its receipt. The nonce is consumed and the
// attached deposits are taken from the signer here.
func (ex *blockExecutor) applyTransaction(p *pendingTx) error {
	tx := &p.stx.Transaction
	o := newOverlay(ex.ctx, ex.n.state)

	acc, key, rej, err := checkSigner(o, tx)
	if err != nil {
		return err
	}
	if rej == nil && tx.Nonce != key.Nonce+1 {
		rej = invalidTx("InvalidNonce", "nonce %d must be %d", tx.Nonce, key.Nonce+1)
	}
	if rej == nil {
		deposit := types.TotalDeposit(tx.Actions)
		if acc.Amount.Cmp(deposit) < 0 {
			rej = invalidTx("NotEnoughBalance", "%s has %s, needs %s", tx.SignerID, acc.Amount, deposit)
		} else {
			acc.Amount = acc.Amount.Sub(deposit)
		}
	}
	if rej != nil {
		log.Infow("transaction dropped", "hash", p.hash, "reason", rej)
		ex.rejected = append(ex.rejected, rejectedTx{hash: p.hash, err: rej})
		return nil
	}

	key.Nonce = tx.Nonce
	if err := o.setAccount(tx.SignerID, acc); err != nil {
		return err
	}
	if err := o.setAccessKey(tx.SignerID, tx.PublicKey, key); err != nil {
		return err
	}
	if err := o.commit(ex.n.state); err != nil {
		return err
	}
	if err := ex.w.putTx(p.hash, p.raw); err != nil {
		return err
	}

	receiptID := types.DeriveReceiptID(p.hash, 0)
	t := &txExecution{
		hash: p.hash,
		outcome: &types.ExecutionOutcomeWithID{
			ID: p.hash,
			Outcome: types.ExecutionOutcome{
				ReceiptIDs:  []types.CryptoHash{receiptID},
				GasBurnt:    txConversionGas,
				TokensBurnt: types.ZeroBalance(),
				ExecutorID:  tx.SignerID,
				Status:      types.SuccessReceiptStatus(receiptID),
			},
		},
	}
	ex.outcomes = append(ex.outcomes, t.outcome)
	ex.included = append(ex.included, t)
	ex.queue = append(ex.queue, &queuedReceipt{
		receipt: &types.Receipt{
			ReceiptID:       receiptID,
			PredecessorID:   tx.SignerID,
			ReceiverID:      tx.ReceiverID,
			SignerID:        tx.SignerID,
			SignerPublicKey: tx.PublicKey,
			Actions:         tx.Actions,
		},
		tx: t,
	})
	return nil
}

// applyReceipt executes the actions of a receipt. Either all of them take effect or, on the
// first failing action, none, and the attached deposits go back to the predecessor.
func (ex *blockExecutor) applyReceipt(q *queuedReceipt) error {
	r := q.receipt
	o := newOverlay(ex.ctx, ex.n.state)
	run, err := ex.runActions(o, r)
	if err != nil {
		return err
	}

	var status types.ExecutionStatus
	if run.failure != nil {
		status = types.FailureStatus(run.failure)
		run.followups = nil
		if err := ex.refund(r); err != nil {
			return err
		}
		log.Debugw("receipt failed", "id", r.ReceiptID, "receiver", r.ReceiverID, "error", run.failure)
	} else {
		if err := o.commit(ex.n.state); err != nil {
			return err
		}
		status = types.SuccessValueStatus(run.value)
	}

	out := &types.ExecutionOutcomeWithID{
		ID: r.ReceiptID,
		Outcome: types.ExecutionOutcome{
			Logs:        run.logs,
			GasBurnt:    run.gas,
			TokensBurnt: types.ZeroBalance(),
			ExecutorID:  r.ReceiverID,
			Status:      status,
		},
	}
	for _, f := range run.followups {
		out.Outcome.ReceiptIDs = append(out.Outcome.ReceiptIDs, f.ReceiptID)
		ex.queue = append(ex.queue, &queuedReceipt{receipt: f, tx: q.tx})
	}
	ex.outcomes = append(ex.outcomes, out)
	ex.receipts = append(ex.receipts, r.ReceiptID)
	if q.tx != nil {
		q.tx.receipts = append(q.tx.receipts, out)
	}
	return nil
}

// refund returns the deposits of a failed receipt to its predecessor. They are burnt when the
// predecessor no longer exists.
func (ex *blockExecutor) refund(r *types.Receipt) error {
	deposit := types.TotalDeposit(r.Actions)
	if deposit.IsZero() {
		return nil
	}
	o := newOverlay(ex.ctx, ex.n.state)
	acc, err := o.getAccount(r.PredecessorID)
	if err != nil {
		return err
	}
	if acc == nil {
		log.Infow("refund burnt", "receipt", r.ReceiptID, "predecessor", r.PredecessorID, "amount", deposit)
		return nil
	}
	acc.Amount = acc.Amount.Add(deposit)
	if err := o.setAccount(r.PredecessorID, acc); err != nil {
		return err
	}
	return o.commit(ex.n.state)
}

type actionRun struct {
	value     []byte
	logs      []string
	gas       types.Gas
	followups []*types.Receipt
	failure   *types.ExecutionError
}

// needsOwnership reports whether only the account itself may send the action.
func needsOwnership(k types.ActionKind) bool {
	switch k {
	case types.ActionCreateAccount, types.ActionTransfer, types.ActionFunctionCall:
		return false
	default:
		return true
	}
}

func (ex *blockExecutor) runActions(o *overlay, r *types.Receipt) (*actionRun, error) {
	run := &actionRun{}
	acc, err := o.getAccount(r.ReceiverID)
	if err != nil {
		return nil, err
	}
	created := false

	for i, a := range r.Actions {
		if needsOwnership(a.Kind()) && r.PredecessorID != r.ReceiverID && !created {
			run.failure = actionError(i, "ActorNoPermission", "%s cannot %s on %s", r.PredecessorID, a.Kind(), r.ReceiverID)
			return run, nil
		}
		if acc == nil && a.Kind() != types.ActionCreateAccount {
			run.failure = actionError(i, "AccountDoesNotExist", "%s", r.ReceiverID)
			return run, nil
		}
		run.value = nil

		switch v := a.(type) {
		case *types.CreateAccountAction:
			if acc != nil {
				run.failure = actionError(i, "AccountAlreadyExists", "%s", r.ReceiverID)
				return run, nil
			}
			acc = &types.Account{Amount: types.ZeroBalance(), Locked: types.ZeroBalance()}
			created = true

		case *types.DeployContractAction:
			o.put(codeKey(r.ReceiverID), v.Code)
			acc.CodeHash = types.HashBytes(v.Code)

		case *types.FunctionCallAction:
			acc.Amount = acc.Amount.Add(v.Deposit)
			failure, err := ex.call(o, r, i, v, acc, run)
			if err != nil {
				return nil, err
			}
			if failure != nil {
				run.failure = failure
				return run, nil
			}

		case *types.TransferAction:
			acc.Amount = acc.Amount.Add(v.Deposit)

		case *types.StakeAction:
			total := acc.Amount.Add(acc.Locked)
			if v.Stake.Cmp(total) > 0 {
				run.failure = actionError(i, "TriesToStake", "%s has %s, tries to stake %s", r.ReceiverID, total, v.Stake)
				return run, nil
			}
			acc.Amount = total.Sub(v.Stake)
			acc.Locked = v.Stake

		case *types.AddKeyAction:
			existing, err := o.getAccessKey(r.ReceiverID, v.PublicKey)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				run.failure = actionError(i, "AddKeyAlreadyExists", "%s already has %s", r.ReceiverID, v.PublicKey)
				return run, nil
			}
			key := v.AccessKey
			if err := o.setAccessKey(r.ReceiverID, v.PublicKey, &key); err != nil {
				return nil, err
			}

		case *types.DeleteKeyAction:
			existing, err := o.getAccessKey(r.ReceiverID, v.PublicKey)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				run.failure = actionError(i, "DeleteKeyDoesNotExist", "%s has no key %s", r.ReceiverID, v.PublicKey)
				return run, nil
			}
			o.remove(accessKeyKey(r.ReceiverID, v.PublicKey))

		case *types.DeleteAccountAction:
			if !acc.Locked.IsZero() {
				run.failure = actionError(i, "DeleteAccountStaking", "%s has %s staked", r.ReceiverID, acc.Locked)
				return run, nil
			}
			if err := o.removeAccount(r.ReceiverID); err != nil {
				return nil, err
			}
			if v.BeneficiaryID != r.ReceiverID && !acc.Amount.IsZero() {
				run.followups = append(run.followups, &types.Receipt{
					ReceiptID:       types.DeriveReceiptID(r.ReceiptID, uint64(len(run.followups))),
					PredecessorID:   r.ReceiverID,
					ReceiverID:      v.BeneficiaryID,
					SignerID:        r.SignerID,
					SignerPublicKey: r.SignerPublicKey,
					Actions:         []types.Action{&types.TransferAction{Deposit: acc.Amount}},
				})
			}
			acc = nil

		default:
			return nil, xerrors.Errorf("unknown action %T", a)
		}

		if a.Kind() != types.ActionFunctionCall {
			run.gas += actionGas
		}
	}

	if acc != nil {
		if err := o.setAccount(r.ReceiverID, acc); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func (ex *blockExecutor) call(
	o *overlay,
	r *types.Receipt,
	index int,
	fc *types.FunctionCallAction,
	acc *types.Account,
	run *actionRun,
) (*types.ExecutionError, error) {
	code, err := o.getCode(r.ReceiverID)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return actionError(index, "CodeDoesNotExist", "%s has no contract", r.ReceiverID), nil
	}

	call := &CallContext{
		ReceiptID:       r.ReceiptID,
		ContractID:      r.ReceiverID,
		PredecessorID:   r.PredecessorID,
		SignerID:        r.SignerID,
		SignerPublicKey: r.SignerPublicKey,
		BlockHeight:     ex.height,
		Code:            code,
		Method:          fc.MethodName,
		Args:            fc.Args,
		Gas:             fc.Gas,
		Deposit:         fc.Deposit,
		Balance:         acc.Amount,
	}
	res, err := ex.n.runtime.Call(ex.ctx, call, &contractStorage{o: o, account: r.ReceiverID})
	if err != nil {
		var ee *types.ExecutionError
		if errors.As(err, &ee) {
			out := *ee
			out.ActionIndex = index
			return &out, nil
		}
		return actionError(index, "FunctionCallError", "%v", err), nil
	}
	if res.GasUsed > fc.Gas {
		return actionError(index, "GasExceeded", "used %d of %d", res.GasUsed, fc.Gas), nil
	}
	run.value = res.Value
	run.logs = append(run.logs, res.Logs...)
	run.gas += res.GasUsed
	return nil, nil
}

// final follows the chain of SuccessReceiptId statuses from the transaction to the receipt
// that decides its result.
func (t *txExecution) final() *types.FinalExecutionOutcome {
	byID := make(map[types.CryptoHash]*types.ExecutionOutcomeWithID, len(t.receipts))
	out := &types.FinalExecutionOutcome{
		TransactionHash:    t.hash,
		TransactionOutcome: *t.outcome,
	}
	for _, r := range t.receipts {
		byID[r.ID] = r
		out.ReceiptsOutcome = append(out.ReceiptsOutcome, *r)
	}

	status := t.outcome.Outcome.Status
	for status.Kind == types.ExecutionSuccessReceiptID {
		next, ok := byID[*status.SuccessReceiptID]
		if !ok {
			out.Status = types.FinalExecutionStatus{Kind: types.FinalStarted}
			return out
		}
		status = next.Outcome.Status
	}
	switch status.Kind {
	case types.ExecutionFailure:
		out.Status = types.FinalExecutionStatus{Kind: types.FinalFailure, Failure: status.Failure}
	case types.ExecutionSuccessValue:
		out.Status = types.FinalExecutionStatus{Kind: types.FinalSuccessValue, SuccessValue: status.SuccessValue}
	default:
		out.Status = types.FinalExecutionStatus{Kind: types.FinalStarted}
	}
	return out
}
