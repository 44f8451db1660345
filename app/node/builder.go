package node

import (
	"context"
	"path/filepath"

	"github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"
	badgerds "github.com/ipfs/go-ds-badger2"
	"github.com/pkg/errors"
	"github.com/raulk/clock"

	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
	"github.com/L5dxb/near-evm/pkg/localnode"
)

// Builder is a helper to aid in the construction of a node.
type Builder struct {
	cfg     *config.Config
	repoDir string
	ds      datastore.Batching
	runtime localnode.ContractRuntime
	clock   clock.Clock
}

// BuilderOpt is an option for building a node.
type BuilderOpt func(*Builder) error

// RepoDir sets the directory relative datastore paths are resolved against.
func RepoDir(dir string) BuilderOpt {
	return func(b *Builder) error {
		b.repoDir = dir
		return nil
	}
}

// Datastore makes the node use ds instead of opening the configured one.
func Datastore(ds datastore.Batching) BuilderOpt {
	return func(b *Builder) error {
		b.ds = ds
		return nil
	}
}

// Runtime sets the contract runtime, localnode.KeyValueRuntime by default.
func Runtime(rt localnode.ContractRuntime) BuilderOpt {
	return func(b *Builder) error {
		b.runtime = rt
		return nil
	}
}

// Clock sets the clock driving block production.
func Clock(clk clock.Clock) BuilderOpt {
	return func(b *Builder) error {
		b.clock = clk
		return nil
	}
}

// New creates a new node.
func New(ctx context.Context, cfg *config.Config, opts ...BuilderOpt) (*Node, error) {
	b := &Builder{cfg: cfg, runtime: localnode.KeyValueRuntime{}}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	return b.build(ctx)
}

func (b *Builder) build(ctx context.Context) (*Node, error) {
	nodeCfg, err := localnode.FromConfig(b.cfg.Node)
	if err != nil {
		return nil, err
	}
	jwtAuth, err := jwtauth.NewJwtAuth(b.cfg.API.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up api auth")
	}
	nodeCfg.Runtime = b.runtime
	nodeCfg.Clock = b.clock

	ds := b.ds
	ownDs := false
	if ds == nil {
		if ds, err = OpenDatastore(b.cfg.Node.Datastore, b.repoDir); err != nil {
			return nil, err
		}
		ownDs = true
	}

	local, err := localnode.New(ctx, ds, nodeCfg)
	if err != nil {
		if ownDs {
			_ = ds.Close()
		}
		return nil, errors.Wrap(err, "failed to open local node")
	}

	nd := &Node{
		cfg:     b.cfg,
		local:   local,
		jwtAuth: jwtAuth,
	}
	if ownDs {
		nd.ds = ds
	}
	return nd, nil
}

// OpenDatastore opens the datastore described by cfg. A relative path is taken relative
// to repoDir.
func OpenDatastore(cfg *config.DatastoreConfig, repoDir string) (datastore.Batching, error) {
	switch cfg.Type {
	case "memory":
		return dss.MutexWrap(datastore.NewMapDatastore()), nil
	case "badgerds":
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(repoDir, path)
		}
		opts := badgerds.DefaultOptions
		ds, err := badgerds.NewDatastore(path, &opts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open badger datastore at %s", path)
		}
		return ds, nil
	default:
		return nil, errors.Errorf("unknown datastore type in config: %s", cfg.Type)
	}
}
