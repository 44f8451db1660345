package main

import (
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("cli")

const (
	flagRepo    = "repo"
	flagAPI     = "api"
	flagAccount = "account"
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:                 "near-evm",
		Usage:                "run a local chain and submit transactions to it",
		EnableBashCompletion: true,
		Writer:               out,
		ErrWriter:            out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagRepo,
				Usage:   "directory holding config.toml and the chain data",
				EnvVars: []string{"NEAREVM_PATH"},
				Value:   "~/.near-evm",
			},
			&cli.StringFlag{
				Name:    flagAPI,
				Usage:   "node api info as [token:]multiaddr, overrides client.nodeApiInfo",
				EnvVars: []string{"NEAREVM_API_INFO"},
			},
			&cli.StringFlag{
				Name:  flagAccount,
				Usage: "account to sign as, overrides client.accountId",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			initCmd,
			daemonCmd,
			configCmd,
			authCmd,
			keysCmd,
			viewCmd,
			txCmd,
			evmCmd,
		},
	}
}

func main() {
	app := newApp(os.Stdout)
	app.Setup()

	err := app.Run(os.Args)
	// wipe any key material held in enclaves before exiting
	memguard.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %v\n", err) // nolint: errcheck
		os.Exit(1)
	}
}
