package user

import (
	"context"
	"sync"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/metrics"
	"github.com/L5dxb/near-evm/pkg/types"
)

type nonceKey struct {
	account types.AccountID
	key     string
}

func newNonceKey(account types.AccountID, pk crypto.PublicKey) nonceKey {
	return nonceKey{account: account, key: pk.String()}
}

// NonceLocker serializes nonce assignment per (account, access key). A holder of the lock
// fetches the chain nonce, signs and submits before releasing it, so two transactions
// issued through the same locker never share a nonce.
//
// It also remembers the last transaction submitted for each key until the chain nonce
// catches up with it. The chain may not reflect a submitted transaction yet, so the next
// nonce is the larger of the two plus one. A remembered transaction the node later drops
// must be forgotten with Reset, or every following nonce leaves a gap.
type NonceLocker struct {
	lk        sync.Mutex
	locks     map[nonceKey]*keyLock
	committed map[nonceKey]submittedTx
}

// keyLock is held by at most one caller. refs counts the holder and the waiters, the entry
// is removed when it drops to zero.
type keyLock struct {
	ch   chan struct{}
	refs int
}

type submittedTx struct {
	nonce types.Nonce
	hash  types.CryptoHash
}

func NewNonceLocker() *NonceLocker {
	return &NonceLocker{
		locks:     make(map[nonceKey]*keyLock),
		committed: make(map[nonceKey]submittedTx),
	}
}

// TakeLock blocks until the lock for (account, pk) is acquired or ctx is done. The returned
// function releases the lock.
func (l *NonceLocker) TakeLock(ctx context.Context, account types.AccountID, pk crypto.PublicKey) (func(), error) {
	k := newNonceKey(account, pk)

	l.lk.Lock()
	kl, ok := l.locks[k]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[k] = kl
	}
	kl.refs++
	l.lk.Unlock()

	sw := metrics.NonceLockWait.Start(ctx)
	defer sw.Stop(ctx)

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(k, kl)
		return nil, ctx.Err()
	}
	return func() {
		<-kl.ch
		l.unref(k, kl)
	}, nil
}

func (l *NonceLocker) unref(k nonceKey, kl *keyLock) {
	l.lk.Lock()
	defer l.lk.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, k)
	}
}

// Pending returns the hash of the remembered transaction of (account, pk) when the chain,
// at nonce chain, does not include it yet. The caller must hold the lock.
func (l *NonceLocker) Pending(account types.AccountID, pk crypto.PublicKey, chain types.Nonce) (types.CryptoHash, bool) {
	l.lk.Lock()
	defer l.lk.Unlock()

	c, ok := l.committed[newNonceKey(account, pk)]
	if !ok || c.nonce <= chain {
		return types.EmptyHash, false
	}
	return c.hash, true
}

// NextNonce returns the nonce for the next transaction of (account, pk) given the nonce the
// chain reports for the key. A remembered transaction the chain has caught up with is
// forgotten. The caller must hold the lock.
func (l *NonceLocker) NextNonce(account types.AccountID, pk crypto.PublicKey, chain types.Nonce) types.Nonce {
	l.lk.Lock()
	defer l.lk.Unlock()

	k := newNonceKey(account, pk)
	c, ok := l.committed[k]
	if !ok {
		return chain + 1
	}
	if c.nonce <= chain {
		delete(l.committed, k)
		return chain + 1
	}
	return c.nonce + 1
}

// Record notes that the transaction hash with nonce was accepted by the node for
// (account, pk). An older nonce does not replace a newer one.
func (l *NonceLocker) Record(account types.AccountID, pk crypto.PublicKey, nonce types.Nonce, hash types.CryptoHash) {
	l.lk.Lock()
	defer l.lk.Unlock()

	k := newNonceKey(account, pk)
	if c, ok := l.committed[k]; !ok || nonce > c.nonce {
		l.committed[k] = submittedTx{nonce: nonce, hash: hash}
	}
}

// Reset forgets the remembered transaction of (account, pk) so the next one starts from the
// chain nonce again. Used after the node refused or dropped a transaction.
func (l *NonceLocker) Reset(account types.AccountID, pk crypto.PublicKey) {
	l.lk.Lock()
	defer l.lk.Unlock()

	delete(l.committed, newNonceKey(account, pk))
}

// size returns the number of keys with a lock entry and with a remembered transaction.
func (l *NonceLocker) size() (locks, committed int) {
	l.lk.Lock()
	defer l.lk.Unlock()

	return len(l.locks), len(l.committed)
}
