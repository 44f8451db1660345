package node

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
	"github.com/L5dxb/near-evm/pkg/localnode"
)

var log = logging.Logger("node")

const shutdownTimeout = 5 * time.Second

// Node is a local chain served over JSON-RPC.
type Node struct {
	cfg     *config.Config
	local   *localnode.Node
	jwtAuth *jwtauth.JwtAuth
	// ds is closed with the node when the builder opened it.
	ds datastore.Batching

	listener manet.Listener
	server   *http.Server
}

// Local returns the in-process chain.
func (node *Node) Local() *localnode.Node {
	return node.local
}

// JwtAuth mints and verifies the tokens the API accepts.
func (node *Node) JwtAuth() *jwtauth.JwtAuth {
	return node.jwtAuth
}

// APIAddr is the multiaddr the RPC server listens on, empty before Start.
func (node *Node) APIAddr() string {
	if node.listener == nil {
		return ""
	}
	return node.listener.Multiaddr().String()
}

// Start begins block production and binds the API listener.
func (node *Node) Start(ctx context.Context) error {
	mAddr, err := ma.NewMultiaddr(node.cfg.API.ListenAddress)
	if err != nil {
		return errors.Wrap(err, "invalid api listen address")
	}
	// listen first so a zero port is resolved before anyone asks for APIAddr
	lst, err := manet.Listen(mAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", mAddr)
	}

	handler, err := node.handler()
	if err != nil {
		_ = lst.Close()
		return err
	}
	node.listener = lst
	node.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	node.local.Start(ctx)
	log.Infow("node started", "api", node.APIAddr(), "chain", node.cfg.Node.ChainID)
	return nil
}

// Serve runs the RPC server until ctx is done, then stops the node.
func (node *Node) Serve(ctx context.Context) error {
	if node.server == nil {
		return errors.New("node not started")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := node.server.Serve(manet.NetListener(node.listener))
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "api server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("shutting down node...")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return node.Stop(stopCtx)
	})
	return g.Wait()
}

// Stop shuts down the RPC server and the chain and closes the datastore.
func (node *Node) Stop(ctx context.Context) error {
	var result error
	if node.server != nil {
		if err := node.server.Shutdown(ctx); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "api server shutdown"))
		}
	}
	if err := node.local.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "local node close"))
	}
	if node.ds != nil {
		log.Infof("closing datastore...")
		if err := node.ds.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "datastore close"))
		}
	}

	for _, name := range logging.GetSubsystems() {
		_ = logging.Logger(name).Sync()
	}
	return result
}
