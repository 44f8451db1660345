package types

import (
	"github.com/L5dxb/near-evm/pkg/crypto"
)

// AccountView is an account's state at a block.
type AccountView struct {
	Amount       Balance
	Locked       Balance
	CodeHash     CryptoHash
	StorageUsage uint64
	BlockHeight  BlockHeight
	BlockHash    CryptoHash
}

// AccessKeyView is an access key's state at a block.
type AccessKeyView struct {
	PublicKey   crypto.PublicKey
	Nonce       Nonce
	Permission  AccessKeyPermission
	BlockHeight BlockHeight
	BlockHash   CryptoHash
}

// AccessKey drops the block reference.
func (v *AccessKeyView) AccessKey() AccessKey {
	return AccessKey{Nonce: v.Nonce, Permission: v.Permission}
}

// StateItem is one contract storage entry.
type StateItem struct {
	Key   []byte
	Value []byte
}

// ViewStateResult is a slice of contract storage under a key prefix, ordered by key.
type ViewStateResult struct {
	Values      []StateItem
	BlockHeight BlockHeight
	BlockHash   CryptoHash
}

type BlockHeaderView struct {
	Height    BlockHeight
	Hash      CryptoHash
	PrevHash  CryptoHash
	StateRoot CryptoHash
	// Timestamp is unix nanoseconds.
	Timestamp uint64
}

// BlockView lists the transactions and receipts applied in a block.
type BlockView struct {
	Header       BlockHeaderView
	Transactions []CryptoHash
	Receipts     []CryptoHash
}
