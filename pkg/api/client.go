package api

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
)

// NewFullNodeRPC connects to the node API served at addr, a ws or http URL as produced by
// APIInfo.DialArgs.
func NewFullNodeRPC(ctx context.Context, addr string, header http.Header) (FullNode, jsonrpc.ClientCloser, error) {
	var full FullNodeStruct
	closer, err := jsonrpc.NewClient(ctx, addr, Namespace, &full.Internal, header)
	return &full, closer, err
}

// DialFullNode resolves info and connects to it.
func DialFullNode(ctx context.Context, info APIInfo) (FullNode, jsonrpc.ClientCloser, error) {
	addr, err := info.DialArgs(Version)
	if err != nil {
		return nil, nil, err
	}
	return NewFullNodeRPC(ctx, addr, info.AuthHeader())
}

// NewServer returns a JSON-RPC handler serving impl under Namespace. Wrap it in an
// auth.Handler to grant token holders more than defaultPerms.
func NewServer(impl FullNode, defaultPerms []auth.Permission) *jsonrpc.RPCServer {
	server := jsonrpc.NewServer()
	server.Register(Namespace, PermissionedFullNode(impl, defaultPerms))
	return server
}
