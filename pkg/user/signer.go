package user

import (
	"sync"

	"github.com/L5dxb/near-evm/pkg/crypto"
)

// SignerHandle holds a replaceable signer. Readers get the signer current at the time of the
// call; a Set does not affect signers already handed out.
type SignerHandle struct {
	lk     sync.RWMutex
	signer crypto.Signer
}

func NewSignerHandle(signer crypto.Signer) *SignerHandle {
	return &SignerHandle{signer: signer}
}

func (h *SignerHandle) Get() crypto.Signer {
	h.lk.RLock()
	defer h.lk.RUnlock()
	return h.signer
}

func (h *SignerHandle) Set(signer crypto.Signer) {
	h.lk.Lock()
	defer h.lk.Unlock()
	h.signer = signer
}
