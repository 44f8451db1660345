package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/L5dxb/near-evm/app/node"
	"github.com/L5dxb/near-evm/pkg/config"
)

var daemonCmd = &cli.Command{
	Name:  "daemon",
	Usage: "run a local chain and serve it over JSON-RPC",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "listen", Usage: "api listen multiaddr, overrides api.listenAddress"},
		&cli.DurationFlag{Name: "block-interval", Usage: "time between blocks, 0 produces a block per transaction"},
		&cli.BoolFlag{Name: "memory", Usage: "keep the chain in memory only"},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if l := cctx.String("listen"); l != "" {
			cfg.API.ListenAddress = l
		}
		if cctx.IsSet("block-interval") {
			cfg.Node.BlockInterval = config.Duration(cctx.Duration("block-interval"))
		}
		if cctx.Bool("memory") {
			cfg.Node.Datastore.Type = "memory"
		}
		dir, err := repoDir(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGTERM, os.Interrupt)
		defer stop()

		nd, err := node.New(ctx, cfg, node.RepoDir(dir))
		if err != nil {
			return err
		}
		if err := nd.Start(ctx); err != nil {
			_ = nd.Stop(ctx)
			return err
		}
		log.Infow("serving", "api", nd.APIAddr(), "blockInterval", time.Duration(cfg.Node.BlockInterval))
		err = nd.Serve(ctx)
		log.Infof("daemon shutdown gracefully")
		return err
	},
}
