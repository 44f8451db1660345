package localnode

import (
	"errors"
	"fmt"

	"github.com/L5dxb/near-evm/pkg/types"
)

// ErrClosed is returned by operations on a closed node.
var ErrClosed = errors.New("node closed")

// InvalidTxError explains why a transaction was refused. A refused transaction is not
// included in a block and does not consume its nonce.
type InvalidTxError struct {
	Kind    string
	Message string
}

func (e *InvalidTxError) Error() string {
	return e.Kind + ": " + e.Message
}

func invalidTx(kind, format string, args ...interface{}) *InvalidTxError {
	return &InvalidTxError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func actionError(index int, kind, format string, args ...interface{}) *types.ExecutionError {
	return &types.ExecutionError{ActionIndex: index, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
