package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/metrics"
	"github.com/L5dxb/near-evm/pkg/types"
)

var errNoSigner = errors.New("no signer configured")

// txBuilder does the part of a submission shared by Client and AsyncClient: take the nonce
// lock, read the reference block and the key's nonce, then sign.
type txBuilder struct {
	nonces        *NonceLocker
	bestBlockHash func(ctx context.Context) (types.CryptoHash, error)
	accessKey     func(ctx context.Context, accountID types.AccountID, pk crypto.PublicKey) (*types.AccessKeyView, error)
	finalResult   func(ctx context.Context, hash types.CryptoHash) (*types.FinalExecutionOutcome, error)
}

// build returns the signed transaction and the release func of the nonce lock, which the
// caller holds until the transaction has been submitted.
func (b *txBuilder) build(
	ctx context.Context,
	signer crypto.Signer,
	signerID types.AccountID,
	receiverID types.AccountID,
	actions []types.Action,
) (*types.SignedTransaction, func(), error) {
	if len(actions) == 0 {
		return nil, nil, ErrNoActions
	}
	if signer == nil {
		return nil, nil, &Error{Kind: KindSigning, Op: "sign transaction", Err: errNoSigner}
	}
	pk := signer.PublicKey()

	release, err := b.nonces.TakeLock(ctx, signerID, pk)
	if err != nil {
		return nil, nil, err
	}

	blockHash, err := b.bestBlockHash(ctx)
	if err != nil {
		log.Debugw("best block hash unavailable, using zero hash", "signer", signerID, "err", err)
		blockHash = types.EmptyHash
	}

	var chainNonce types.Nonce
	key, err := b.accessKey(ctx, signerID, pk)
	switch {
	case err != nil:
		log.Debugw("access key unavailable, assuming nonce 0", "signer", signerID, "key", pk, "err", err)
	case key != nil:
		chainNonce = key.Nonce
	}
	b.forgetDropped(ctx, signerID, pk, chainNonce)
	nonce := b.nonces.NextNonce(signerID, pk, chainNonce)

	stx, err := types.NewSignedTransaction(ctx, signer, signerID, receiverID, nonce, blockHash, actions)
	if err != nil {
		release()
		metrics.TxSigningError.Inc(ctx, 1)
		return nil, nil, &Error{Kind: KindSigning, Op: "sign transaction", Err: err}
	}
	return stx, release, nil
}

// forgetDropped checks the remembered transaction the chain does not include yet. If the
// node dropped it, its nonce was never consumed and the next one starts from the chain again.
// Any other answer keeps it, it may still be pending.
func (b *txBuilder) forgetDropped(ctx context.Context, signerID types.AccountID, pk crypto.PublicKey, chainNonce types.Nonce) {
	hash, ok := b.nonces.Pending(signerID, pk, chainNonce)
	if !ok {
		return
	}
	if _, err := b.finalResult(ctx, hash); KindOf(err) == KindRejected {
		log.Infow("previous transaction was dropped, reusing its nonce", "signer", signerID, "hash", hash, "err", err)
		b.nonces.Reset(signerID, pk)
	}
}

// submitted updates the nonce bookkeeping once the node has answered for stx.
func (b *txBuilder) submitted(ctx context.Context, stx *types.SignedTransaction, err error) {
	tx := &stx.Transaction
	switch {
	case err == nil:
		hash, _ := stx.Hash()
		b.nonces.Record(tx.SignerID, tx.PublicKey, tx.Nonce, hash)
		metrics.TxSubmitted.Inc(ctx, 1)
		if ce := log.Desugar().Check(zap.DebugLevel, "transaction submitted"); ce != nil {
			ce.Write(
				zap.String("signer", tx.SignerID.String()),
				zap.String("receiver", tx.ReceiverID.String()),
				zap.Uint64("nonce", uint64(tx.Nonce)),
				zap.Int("actions", len(tx.Actions)),
				zap.Stringer("hash", hash),
			)
		}
	case KindOf(err) == KindRejected:
		b.nonces.Reset(tx.SignerID, tx.PublicKey)
		metrics.TxSubmitError.Inc(ctx, 1)
		log.Infow("transaction rejected", "signer", tx.SignerID, "nonce", tx.Nonce, "err", err)
	default:
		metrics.TxSubmitError.Inc(ctx, 1)
		log.Warnw("transaction submission failed", "signer", tx.SignerID, "nonce", tx.Nonce, "err", err)
	}
}
