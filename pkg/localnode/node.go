package localnode

import (
	"context"
	"sync"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/types"
)

var log = logging.Logger("localnode")

// Node is a single process chain that accepts signed transactions, executes them in blocks
// and answers the queries of api.FullNode.
type Node struct {
	cfg     Config
	clock   clock.Clock
	runtime ContractRuntime

	state datastore.Batching
	chain *chainStore

	lk         sync.RWMutex
	head       *block
	headHash   types.CryptoHash
	pending    []*pendingTx
	pendingSet map[types.CryptoHash]struct{}
	injected   []*types.Receipt
	waiters    map[types.CryptoHash][]chan txResult

	closeOnce sync.Once
	closing   chan struct{}
	wg        sync.WaitGroup
}

var _ api.FullNode = (*Node)(nil)

type pendingTx struct {
	hash types.CryptoHash
	stx  *types.SignedTransaction
	raw  []byte
}

type txResult struct {
	outcome   *types.FinalExecutionOutcome
	rejection *InvalidTxError
}

// New opens a node on ds. The genesis block is written when ds holds no chain yet, otherwise
// the node resumes from the stored head.
func New(ctx context.Context, ds datastore.Batching, cfg Config) (*Node, error) {
	n := &Node{
		cfg:        cfg,
		clock:      cfg.Clock,
		runtime:    cfg.Runtime,
		state:      namespace.Wrap(ds, datastore.NewKey("/state")),
		chain:      &chainStore{ds: namespace.Wrap(ds, datastore.NewKey("/chain"))},
		pendingSet: make(map[types.CryptoHash]struct{}),
		waiters:    make(map[types.CryptoHash][]chan txResult),
		closing:    make(chan struct{}),
	}
	if n.clock == nil {
		n.clock = clock.New()
	}
	if n.runtime == nil {
		n.runtime = NoopRuntime{}
	}

	height, ok, err := n.chain.head(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := n.genesis(ctx); err != nil {
			return nil, xerrors.Errorf("write genesis: %w", err)
		}
		return n, nil
	}

	b, err := n.chain.block(ctx, height)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, xerrors.Errorf("head block %d missing", height)
	}
	if err := n.setHead(b); err != nil {
		return nil, err
	}
	log.Infow("resuming chain", "height", b.Height, "hash", n.headHash)
	return n, nil
}

func (n *Node) genesis(ctx context.Context) error {
	o := newOverlay(ctx, n.state)
	for _, g := range n.cfg.Genesis {
		if err := g.AccountID.Validate(); err != nil {
			return err
		}
		acc := &types.Account{Amount: g.Balance, Locked: types.ZeroBalance()}
		if err := o.setAccount(g.AccountID, acc); err != nil {
			return err
		}
		key := types.NewFullAccessKey()
		if err := o.setAccessKey(g.AccountID, g.PublicKey, &key); err != nil {
			return err
		}
	}
	if err := o.commit(n.state); err != nil {
		return err
	}

	root, err := stateRoot(ctx, n.state)
	if err != nil {
		return err
	}
	b := &block{
		Height:    0,
		StateRoot: root,
		Timestamp: uint64(n.clock.Now().UnixNano()),
	}
	hash, err := b.hash()
	if err != nil {
		return err
	}
	w, err := n.chain.newWriter(ctx)
	if err != nil {
		return err
	}
	if err := w.putBlock(b, hash); err != nil {
		return err
	}
	if err := w.commit(); err != nil {
		return err
	}
	n.head, n.headHash = b, hash
	log.Infow("genesis written", "chain", n.cfg.ChainID, "accounts", len(n.cfg.Genesis), "hash", hash)
	return nil
}

func (n *Node) setHead(b *block) error {
	hash, err := b.hash()
	if err != nil {
		return err
	}
	n.head, n.headHash = b, hash
	return nil
}

// Start begins producing a block every BlockInterval. Without an interval blocks are
// produced on submission and Start does nothing.
func (n *Node) Start(ctx context.Context) {
	if n.cfg.BlockInterval <= 0 {
		return
	}
	ticker := n.clock.Ticker(n.cfg.BlockInterval)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.lk.Lock()
				err := n.produceBlockLocked(ctx)
				n.lk.Unlock()
				if err != nil {
					log.Errorw("failed to produce block", "error", err)
				}
			case <-n.closing:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close stops block production. Callers waiting in BroadcastTxCommit get ErrClosed.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		close(n.closing)
	})
	n.wg.Wait()
	return nil
}

// ProduceBlock applies everything queued in a new block.
func (n *Node) ProduceBlock(ctx context.Context) error {
	n.lk.Lock()
	defer n.lk.Unlock()
	return n.produceBlockLocked(ctx)
}

// InjectReceipt queues a receipt for the next block as if another shard had sent it. A
// receipt without an id gets the hash of its encoding.
func (n *Node) InjectReceipt(ctx context.Context, r *types.Receipt) error {
	if r == nil {
		return xerrors.New("nil receipt")
	}
	if err := r.ReceiverID.Validate(); err != nil {
		return xerrors.Errorf("receiver: %w", err)
	}
	if err := r.PredecessorID.Validate(); err != nil {
		return xerrors.Errorf("predecessor: %w", err)
	}
	if len(r.Actions) == 0 {
		return types.ErrEmptyActions
	}
	rc := *r
	if rc.ReceiptID.IsEmpty() {
		raw, err := types.Marshal(&rc)
		if err != nil {
			return xerrors.Errorf("encode receipt: %w", err)
		}
		rc.ReceiptID = types.HashBytes(raw)
	}

	n.lk.Lock()
	defer n.lk.Unlock()
	n.injected = append(n.injected, &rc)
	log.Debugw("receipt injected", "id", rc.ReceiptID, "receiver", rc.ReceiverID)
	if n.cfg.BlockInterval <= 0 {
		return n.produceBlockLocked(ctx)
	}
	return nil
}
