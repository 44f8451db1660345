package main

import (
	"encoding/json"
	"time"

	"github.com/fatih/color"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
	"github.com/L5dxb/near-evm/pkg/user/rpcuser"
)

type session struct {
	cfg     *config.Config
	account types.AccountID
	node    api.FullNode
	rpc     *rpcuser.RPCUser
	client  *user.Client
	closer  jsonrpc.ClientCloser
}

func signerFromConfig(cfg *config.ClientConfig) (crypto.Signer, error) {
	if cfg.SecretKey != "" {
		s, err := crypto.ParseSecretKey(cfg.SecretKey)
		if err != nil {
			return nil, xerrors.Errorf("client secret key: %w", err)
		}
		return s, nil
	}
	if cfg.SignerSeed == "" {
		return nil, xerrors.New("client config has neither secretKey nor signerSeed")
	}
	return crypto.NewInMemorySignerFromSeed(cfg.SignerSeed), nil
}

// openSession dials the configured node and prepares a client signing as the configured
// account.
func openSession(cctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return nil, err
	}
	account, err := types.ParseAccountID(cfg.Client.AccountID)
	if err != nil {
		return nil, xerrors.Errorf("client account: %w", err)
	}
	signer, err := signerFromConfig(cfg.Client)
	if err != nil {
		return nil, err
	}

	full, closer, err := api.DialFullNode(cctx.Context, api.ParseAPIInfo(cfg.Client.NodeAPIInfo))
	if err != nil {
		return nil, xerrors.Errorf("connect to node: %w", err)
	}
	rpc, err := rpcuser.New(full, signer,
		rpcuser.WithCacheSize(cfg.Client.OutcomeCacheSize),
		rpcuser.WithPollInterval(time.Duration(cfg.Client.PollInterval)),
	)
	if err != nil {
		closer()
		return nil, err
	}
	return &session{
		cfg:     cfg,
		account: account,
		node:    full,
		rpc:     rpc,
		client:  user.NewClient(rpc),
		closer:  closer,
	}, nil
}

func withSession(f func(cctx *cli.Context, s *session) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		s, err := openSession(cctx)
		if err != nil {
			return err
		}
		defer s.closer()
		return f(cctx, s)
	}
}

func printJSON(cctx *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = cctx.App.Writer.Write(append(data, '\n'))
	return err
}

// printOutcome writes a one line colored summary followed by the full outcome.
func printOutcome(cctx *cli.Context, out *types.FinalExecutionOutcome) error {
	w := cctx.App.Writer
	switch {
	case out.Status.IsSuccess():
		_, _ = color.New(color.FgGreen).Fprintf(w, "%s %s\n", out.TransactionHash, out.Status)
	case out.Status.Kind == types.FinalFailure:
		_, _ = color.New(color.FgRed).Fprintf(w, "%s %s\n", out.TransactionHash, out.Err())
	default:
		_, _ = color.New(color.FgYellow).Fprintf(w, "%s %s\n", out.TransactionHash, out.Status)
	}
	for _, l := range out.Logs() {
		_, _ = w.Write([]byte("  log: " + l + "\n"))
	}
	if cctx.Bool("verbose") {
		return printJSON(cctx, out)
	}
	return nil
}

var verboseFlag = &cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print the full outcome"}

func argAccount(cctx *cli.Context, i int) (types.AccountID, error) {
	return types.ParseAccountID(cctx.Args().Get(i))
}

func argBalance(cctx *cli.Context, i int) (types.Balance, error) {
	return types.ParseBalance(cctx.Args().Get(i))
}

func requireArgs(cctx *cli.Context, n int) error {
	if cctx.NArg() != n {
		return xerrors.Errorf("%s expects %d arguments, got %d", cctx.Command.Name, n, cctx.NArg())
	}
	return nil
}

