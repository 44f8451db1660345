// Package rpcuser implements user.User and user.AsyncUser on top of the node API, usually a
// JSON-RPC connection.
package rpcuser

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
)

var log = logging.Logger("rpcuser")

const (
	DefaultCacheSize    = 1024
	DefaultPollInterval = 200 * time.Millisecond
)

type options struct {
	cacheSize    int
	pollInterval time.Duration
	clock        clock.Clock
}

type Option func(*options)

// WithCacheSize bounds the number of final outcomes kept in memory.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithPollInterval sets how often WaitFinal asks the node for an outcome.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// RPCUser is a user.User talking to a node through api.FullNode. It holds no connection of
// its own; closing the transport is up to whoever dialed it.
type RPCUser struct {
	node   api.FullNode
	signer *user.SignerHandle
	finals *lru.ARCCache

	pollInterval time.Duration
	clock        clock.Clock
}

var _ user.User = (*RPCUser)(nil)

func New(node api.FullNode, signer crypto.Signer, opts ...Option) (*RPCUser, error) {
	o := options{
		cacheSize:    DefaultCacheSize,
		pollInterval: DefaultPollInterval,
		clock:        clock.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pollInterval <= 0 {
		return nil, xerrors.Errorf("poll interval must be positive, got %s", o.pollInterval)
	}
	finals, err := lru.NewARC(o.cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("create outcome cache: %w", err)
	}
	return &RPCUser{
		node:         node,
		signer:       user.NewSignerHandle(signer),
		finals:       finals,
		pollInterval: o.pollInterval,
		clock:        o.clock,
	}, nil
}

func transport(op string, err error) error {
	return user.NewError(user.KindTransport, op, err)
}

func (u *RPCUser) ViewAccount(ctx context.Context, accountID types.AccountID) (*types.AccountView, error) {
	const op = "view account"
	v, err := u.node.ViewAccount(ctx, accountID)
	if err != nil {
		return nil, transport(op, err)
	}
	if v == nil {
		return nil, user.NotFound(op, "account "+string(accountID))
	}
	return v, nil
}

func (u *RPCUser) ViewState(ctx context.Context, accountID types.AccountID, prefix []byte) (*types.ViewStateResult, error) {
	const op = "view state"
	v, err := u.node.ViewState(ctx, accountID, prefix)
	if err != nil {
		return nil, transport(op, err)
	}
	if v == nil {
		return nil, user.NotFound(op, "account "+string(accountID))
	}
	return v, nil
}

func (u *RPCUser) AddTransaction(ctx context.Context, stx *types.SignedTransaction) (types.CryptoHash, error) {
	const op = "add transaction"
	raw, err := stx.Serialize()
	if err != nil {
		return types.EmptyHash, transport(op, xerrors.Errorf("encode: %w", err))
	}
	res, err := u.node.BroadcastTxAsync(ctx, raw)
	if err != nil {
		return types.EmptyHash, transport(op, err)
	}
	if res.Rejected() {
		return res.Hash, user.Rejection(op, res.Rejection)
	}
	return res.Hash, nil
}

func (u *RPCUser) CommitTransaction(ctx context.Context, stx *types.SignedTransaction) (*types.FinalExecutionOutcome, error) {
	const op = "commit transaction"
	raw, err := stx.Serialize()
	if err != nil {
		return nil, transport(op, xerrors.Errorf("encode: %w", err))
	}
	res, err := u.node.BroadcastTxCommit(ctx, raw)
	if err != nil {
		return nil, transport(op, err)
	}
	if res.Rejected() {
		return nil, user.Rejection(op, res.Rejection)
	}
	if res.Outcome == nil {
		return nil, transport(op, xerrors.Errorf("node returned no outcome for %s", res.Hash))
	}
	u.remember(res.Outcome)
	return res.Outcome, nil
}

func (u *RPCUser) GetAccessKey(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error) {
	const op = "get access key"
	v, err := u.node.ViewAccessKey(ctx, accountID, pk)
	if err != nil {
		return nil, transport(op, err)
	}
	if v == nil {
		return nil, user.NotFound(op, "access key "+string(accountID)+"/"+pk.String())
	}
	return v, nil
}

func (u *RPCUser) GetBestHeight(ctx context.Context) (types.BlockHeight, error) {
	st, err := u.node.Status(ctx)
	if err != nil {
		return 0, transport("get best height", err)
	}
	return st.LatestBlockHeight, nil
}

func (u *RPCUser) GetBestBlockHash(ctx context.Context) (types.CryptoHash, error) {
	st, err := u.node.Status(ctx)
	if err != nil {
		return types.EmptyHash, transport("get best block hash", err)
	}
	return st.LatestBlockHash, nil
}

func (u *RPCUser) GetBlock(ctx context.Context, height types.BlockHeight) (*types.BlockView, error) {
	b, err := u.node.Block(ctx, height)
	if err != nil {
		return nil, transport("get block", err)
	}
	return b, nil
}

func (u *RPCUser) GetTransactionResult(ctx context.Context, hash types.CryptoHash) (*types.ExecutionOutcome, error) {
	const op = "get transaction result"
	o, err := u.node.TxOutcome(ctx, hash)
	if err != nil {
		return nil, transport(op, err)
	}
	if o == nil {
		return nil, user.NotFound(op, "outcome "+hash.String())
	}
	return o, nil
}

func (u *RPCUser) GetTransactionFinalResult(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error) {
	const op = "get transaction final result"
	if v, ok := u.finals.Get(hash); ok {
		return v.(*types.FinalExecutionOutcome), nil
	}
	res, err := u.node.Tx(ctx, hash)
	if err != nil {
		return nil, transport(op, err)
	}
	switch {
	case res == nil:
		return nil, user.NotFound(op, "transaction "+hash.String())
	case res.Rejected():
		return nil, user.Rejection(op, res.Rejection)
	case res.Outcome == nil:
		return nil, transport(op, xerrors.Errorf("node returned no outcome for %s", hash))
	}
	u.remember(res.Outcome)
	return res.Outcome, nil
}

func (u *RPCUser) GetStateRoot(ctx context.Context) (types.CryptoHash, error) {
	root, err := u.node.StateRoot(ctx)
	if err != nil {
		return types.EmptyHash, transport("get state root", err)
	}
	return root, nil
}

func (u *RPCUser) Signer() crypto.Signer {
	return u.signer.Get()
}

func (u *RPCUser) SetSigner(signer crypto.Signer) {
	u.signer.Set(signer)
}

// remember caches outcomes that can no longer change.
func (u *RPCUser) remember(o *types.FinalExecutionOutcome) {
	if o.Status.IsFinal() {
		u.finals.Add(o.TransactionHash, o)
	}
}

// WaitFinal polls the node until the transaction reaches a final status, the node reports it
// dropped, or ctx ends. A transaction the node does not know yet is polled for like a
// pending one.
func (u *RPCUser) WaitFinal(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error) {
	ticker := u.clock.Ticker(u.pollInterval)
	defer ticker.Stop()

	for {
		o, err := u.GetTransactionFinalResult(ctx, hash)
		switch {
		case err == nil && o.Status.IsFinal():
			return o, nil
		case err != nil && user.KindOf(err) != user.KindNotFound:
			return nil, err
		}
		log.Debugw("waiting for final outcome", "hash", hash, "error", err)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, user.NewError(user.KindTransport, "wait final", ctx.Err())
		}
	}
}
