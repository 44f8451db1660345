package types

import (
	"context"
	"errors"
	"fmt"

	"github.com/L5dxb/near-evm/pkg/crypto"
)

// ErrEmptyActions is returned when a transaction is built without actions.
var ErrEmptyActions = errors.New("transaction has no actions")

// Transaction is an ordered list of actions that signerID asks receiverID to execute.
type Transaction struct {
	SignerID   AccountID
	PublicKey  crypto.PublicKey
	Nonce      Nonce
	ReceiverID AccountID
	BlockHash  CryptoHash
	Actions    []Action
}

type transactionWire struct {
	_          struct{} `cbor:",toarray"`
	SignerID   AccountID
	PublicKey  crypto.PublicKey
	Nonce      Nonce
	ReceiverID AccountID
	BlockHash  CryptoHash
	Actions    ActionList
}

func (tx Transaction) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(transactionWire{
		SignerID:   tx.SignerID,
		PublicKey:  tx.PublicKey,
		Nonce:      tx.Nonce,
		ReceiverID: tx.ReceiverID,
		BlockHash:  tx.BlockHash,
		Actions:    tx.Actions,
	})
}

func (tx *Transaction) UnmarshalCBOR(data []byte) error {
	var w transactionWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	*tx = Transaction{
		SignerID:   w.SignerID,
		PublicKey:  w.PublicKey,
		Nonce:      w.Nonce,
		ReceiverID: w.ReceiverID,
		BlockHash:  w.BlockHash,
		Actions:    w.Actions,
	}
	return nil
}

// Serialize returns the canonical encoding of the transaction.
func (tx *Transaction) Serialize() ([]byte, error) {
	return encMode.Marshal(tx)
}

// Hash is the blake2b-256 digest of the canonical encoding. It identifies the transaction
// and is the payload that gets signed.
func (tx *Transaction) Hash() (CryptoHash, error) {
	data, err := tx.Serialize()
	if err != nil {
		return EmptyHash, err
	}
	return HashBytes(data), nil
}

// SignedTransaction is a transaction with the signature of its hash.
type SignedTransaction struct {
	_           struct{} `cbor:",toarray"`
	Transaction Transaction
	Signature   crypto.Signature
}

// NewSignedTransaction builds the transaction and signs its hash with signer. The signer's
// public key is recorded as the transaction's access key.
func NewSignedTransaction(
	ctx context.Context,
	signer crypto.Signer,
	signerID AccountID,
	receiverID AccountID,
	nonce Nonce,
	blockHash CryptoHash,
	actions []Action,
) (*SignedTransaction, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyActions
	}
	tx := Transaction{
		SignerID:   signerID,
		PublicKey:  signer.PublicKey(),
		Nonce:      nonce,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
		Actions:    actions,
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	sig, err := signer.Sign(ctx, hash[:])
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: tx, Signature: *sig}, nil
}

// DecodeSignedTransaction is the inverse of SignedTransaction.Serialize.
func DecodeSignedTransaction(data []byte) (*SignedTransaction, error) {
	var stx SignedTransaction
	if err := decMode.Unmarshal(data, &stx); err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}
	return &stx, nil
}

func (stx *SignedTransaction) Serialize() ([]byte, error) {
	return encMode.Marshal(stx)
}

func (stx *SignedTransaction) Hash() (CryptoHash, error) {
	return stx.Transaction.Hash()
}

// Verify checks the signature against the transaction's public key.
func (stx *SignedTransaction) Verify() error {
	hash, err := stx.Hash()
	if err != nil {
		return err
	}
	return crypto.Verify(&stx.Signature, hash[:], stx.Transaction.PublicKey)
}

func (stx *SignedTransaction) String() string {
	tx := &stx.Transaction
	return fmt.Sprintf("tx{signer=%s receiver=%s nonce=%d actions=%d}", tx.SignerID, tx.ReceiverID, tx.Nonce, len(tx.Actions))
}
