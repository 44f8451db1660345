package types

import (
	"github.com/L5dxb/near-evm/pkg/crypto"
)

// Receipt is an action receipt: the actions of a transaction, or a follow-up effect of one,
// addressed to ReceiverID.
type Receipt struct {
	ReceiptID       CryptoHash
	PredecessorID   AccountID
	ReceiverID      AccountID
	SignerID        AccountID
	SignerPublicKey crypto.PublicKey
	Actions         []Action
}

type receiptWire struct {
	_               struct{} `cbor:",toarray"`
	ReceiptID       CryptoHash
	PredecessorID   AccountID
	ReceiverID      AccountID
	SignerID        AccountID
	SignerPublicKey crypto.PublicKey
	Actions         ActionList
}

func (r Receipt) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(receiptWire{
		ReceiptID:       r.ReceiptID,
		PredecessorID:   r.PredecessorID,
		ReceiverID:      r.ReceiverID,
		SignerID:        r.SignerID,
		SignerPublicKey: r.SignerPublicKey,
		Actions:         r.Actions,
	})
}

func (r *Receipt) UnmarshalCBOR(data []byte) error {
	var w receiptWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Receipt{
		ReceiptID:       w.ReceiptID,
		PredecessorID:   w.PredecessorID,
		ReceiverID:      w.ReceiverID,
		SignerID:        w.SignerID,
		SignerPublicKey: w.SignerPublicKey,
		Actions:         w.Actions,
	}
	return nil
}

// DeriveReceiptID computes the id of the index-th receipt produced by the execution
// identified by parent.
func DeriveReceiptID(parent CryptoHash, index uint64) CryptoHash {
	buf := make([]byte, 0, len(parent)+8)
	buf = append(buf, parent[:]...)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(index>>(8*i)))
	}
	return HashBytes(buf)
}
