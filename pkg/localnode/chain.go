package localnode

import (
	"context"
	"fmt"

	"github.com/ipfs/go-datastore"
	"github.com/pkg/errors"

	"github.com/L5dxb/near-evm/pkg/types"
)

// Chain layout, relative to the /chain namespace:
//
//	/head              height of the latest block
//	/block/<height>    block
//	/blockhash/<hash>  height of the block with that hash
//	/tx/<hash>         serialized signed transaction
//	/outcome/<id>      outcome of a transaction or receipt
//	/final/<hash>      final outcome of a transaction
//	/rejected/<hash>   reason a queued transaction was dropped when applied
var headKey = datastore.NewKey("/head")

func blockKey(h types.BlockHeight) datastore.Key {
	return datastore.NewKey(fmt.Sprintf("/block/%020d", uint64(h)))
}

func blockHashKey(hash types.CryptoHash) datastore.Key {
	return datastore.NewKey("/blockhash/" + hash.String())
}

func txKey(hash types.CryptoHash) datastore.Key {
	return datastore.NewKey("/tx/" + hash.String())
}

func outcomeKey(id types.CryptoHash) datastore.Key {
	return datastore.NewKey("/outcome/" + id.String())
}

func finalKey(hash types.CryptoHash) datastore.Key {
	return datastore.NewKey("/final/" + hash.String())
}

func rejectedKey(hash types.CryptoHash) datastore.Key {
	return datastore.NewKey("/rejected/" + hash.String())
}

type block struct {
	_            struct{} `cbor:",toarray"`
	Height       types.BlockHeight
	PrevHash     types.CryptoHash
	StateRoot    types.CryptoHash
	Timestamp    uint64
	Transactions []types.CryptoHash
	Receipts     []types.CryptoHash
}

func (b *block) hash() (types.CryptoHash, error) {
	raw, err := types.Marshal(b)
	if err != nil {
		return types.EmptyHash, err
	}
	return types.HashBytes(raw), nil
}

func (b *block) view() (*types.BlockView, error) {
	h, err := b.hash()
	if err != nil {
		return nil, err
	}
	return &types.BlockView{
		Header: types.BlockHeaderView{
			Height:    b.Height,
			Hash:      h,
			PrevHash:  b.PrevHash,
			StateRoot: b.StateRoot,
			Timestamp: b.Timestamp,
		},
		Transactions: b.Transactions,
		Receipts:     b.Receipts,
	}, nil
}

// chainStore reads and writes blocks and outcomes.
type chainStore struct {
	ds datastore.Batching
}

func (c *chainStore) head(ctx context.Context) (types.BlockHeight, bool, error) {
	raw, err := c.ds.Get(ctx, headKey)
	if err == datastore.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "load head")
	}
	var h types.BlockHeight
	if err := types.Unmarshal(raw, &h); err != nil {
		return 0, false, errors.Wrap(err, "decode head")
	}
	return h, true, nil
}

func (c *chainStore) block(ctx context.Context, h types.BlockHeight) (*block, error) {
	raw, err := c.ds.Get(ctx, blockKey(h))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load block %d", h)
	}
	var b block
	if err := types.Unmarshal(raw, &b); err != nil {
		return nil, errors.Wrapf(err, "decode block %d", h)
	}
	return &b, nil
}

func (c *chainStore) hasBlockHash(ctx context.Context, hash types.CryptoHash) (bool, error) {
	return c.ds.Has(ctx, blockHashKey(hash))
}

func (c *chainStore) hasTx(ctx context.Context, hash types.CryptoHash) (bool, error) {
	return c.ds.Has(ctx, txKey(hash))
}

func (c *chainStore) outcome(ctx context.Context, id types.CryptoHash) (*types.ExecutionOutcomeWithID, error) {
	raw, err := c.ds.Get(ctx, outcomeKey(id))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load outcome %s", id)
	}
	var out types.ExecutionOutcomeWithID
	if err := types.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "decode outcome %s", id)
	}
	return &out, nil
}

func (c *chainStore) final(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error) {
	raw, err := c.ds.Get(ctx, finalKey(hash))
	if err == datastore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load final outcome %s", hash)
	}
	var out types.FinalExecutionOutcome
	if err := types.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "decode final outcome %s", hash)
	}
	return &out, nil
}

// rejection returns the reason a transaction was dropped, or "" if it never was.
func (c *chainStore) rejection(ctx context.Context, hash types.CryptoHash) (string, error) {
	raw, err := c.ds.Get(ctx, rejectedKey(hash))
	if err == datastore.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "load rejection %s", hash)
	}
	var reason string
	if err := types.Unmarshal(raw, &reason); err != nil {
		return "", errors.Wrapf(err, "decode rejection %s", hash)
	}
	return reason, nil
}

// blockWriter collects everything a block adds to the chain and writes it in one batch.
type blockWriter struct {
	batch datastore.Batch
	ctx   context.Context
}

func (c *chainStore) newWriter(ctx context.Context) (*blockWriter, error) {
	b, err := c.ds.Batch(ctx)
	if err != nil {
		return nil, err
	}
	return &blockWriter{batch: b, ctx: ctx}, nil
}

func (w *blockWriter) put(key datastore.Key, v interface{}) error {
	raw, err := types.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return w.batch.Put(w.ctx, key, raw)
}

func (w *blockWriter) putTx(hash types.CryptoHash, raw []byte) error {
	return w.batch.Put(w.ctx, txKey(hash), raw)
}

func (w *blockWriter) putOutcome(o *types.ExecutionOutcomeWithID) error {
	return w.put(outcomeKey(o.ID), o)
}

func (w *blockWriter) putFinal(o *types.FinalExecutionOutcome) error {
	return w.put(finalKey(o.TransactionHash), o)
}

func (w *blockWriter) putRejection(hash types.CryptoHash, rej *InvalidTxError) error {
	return w.put(rejectedKey(hash), rej.Error())
}

func (w *blockWriter) putBlock(b *block, hash types.CryptoHash) error {
	if err := w.put(blockKey(b.Height), b); err != nil {
		return err
	}
	if err := w.put(blockHashKey(hash), b.Height); err != nil {
		return err
	}
	return w.put(headKey, b.Height)
}

func (w *blockWriter) commit() error {
	return w.batch.Commit(w.ctx)
}
