// Package runtimeuser is an in-process backend for tests: a user.User bound directly to a
// localnode.Node, with receipt injection.
package runtimeuser

import (
	"context"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/localnode"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
	"github.com/L5dxb/near-evm/pkg/user/rpcuser"
)

// RuntimeUser answers every User call from the node without a network hop.
type RuntimeUser struct {
	*rpcuser.RPCUser
	node *localnode.Node
}

var (
	_ user.User            = (*RuntimeUser)(nil)
	_ user.ReceiptInjector = (*RuntimeUser)(nil)
)

func New(node *localnode.Node, signer crypto.Signer, opts ...rpcuser.Option) (*RuntimeUser, error) {
	rpc, err := rpcuser.New(node, signer, opts...)
	if err != nil {
		return nil, err
	}
	return &RuntimeUser{RPCUser: rpc, node: node}, nil
}

// AddReceipt applies r as if it arrived from another shard. An invalid receipt is
// KindRejected.
func (u *RuntimeUser) AddReceipt(ctx context.Context, r *types.Receipt) error {
	if err := u.node.InjectReceipt(ctx, r); err != nil {
		return user.NewError(user.KindRejected, "add receipt", err)
	}
	return nil
}

// Async returns the asynchronous view of the same backend, sharing its signer.
func (u *RuntimeUser) Async() user.AsyncUser {
	return user.NewAsyncAdapter(u)
}

func (u *RuntimeUser) Node() *localnode.Node {
	return u.node
}
