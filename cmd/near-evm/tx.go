package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

const defaultCallGas types.Gas = 100_000_000_000_000

var accessKeyFlags = []cli.Flag{
	&cli.StringFlag{Name: "receiver", Usage: "restrict the key to function calls on this contract"},
	&cli.StringSliceFlag{Name: "method", Usage: "restrict the key to these methods, requires --receiver"},
	&cli.StringFlag{Name: "allowance", Usage: "amount the key may spend on calls, requires --receiver"},
}

func accessKeyFromFlags(cctx *cli.Context) (types.AccessKey, error) {
	if !cctx.IsSet("receiver") {
		if cctx.IsSet("method") || cctx.IsSet("allowance") {
			return types.AccessKey{}, xerrors.New("--method and --allowance require --receiver")
		}
		return types.NewFullAccessKey(), nil
	}
	receiver, err := types.ParseAccountID(cctx.String("receiver"))
	if err != nil {
		return types.AccessKey{}, err
	}
	var allowance *types.Balance
	if cctx.IsSet("allowance") {
		b, err := types.ParseBalance(cctx.String("allowance"))
		if err != nil {
			return types.AccessKey{}, err
		}
		allowance = &b
	}
	return types.AccessKey{Permission: types.FunctionCallAccess(receiver, allowance, cctx.StringSlice("method")...)}, nil
}

func outcomeAction(f func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error)) cli.ActionFunc {
	return withSession(func(cctx *cli.Context, s *session) error {
		out, err := f(cctx, s)
		if err != nil {
			return err
		}
		return printOutcome(cctx, out)
	})
}

var txCmd = &cli.Command{
	Name:  "tx",
	Usage: "sign and commit transactions as the configured account",
	Subcommands: []*cli.Command{
		{
			Name:      "send",
			ArgsUsage: "<receiver> <amount>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 2); err != nil {
					return nil, err
				}
				receiver, err := argAccount(cctx, 0)
				if err != nil {
					return nil, err
				}
				amount, err := argBalance(cctx, 1)
				if err != nil {
					return nil, err
				}
				return s.client.SendMoney(cctx.Context, s.account, receiver, amount)
			}),
		},
		{
			Name:      "deploy",
			Usage:     "deploy contract code to the signer's account",
			ArgsUsage: "<code file>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 1); err != nil {
					return nil, err
				}
				code, err := os.ReadFile(cctx.Args().First())
				if err != nil {
					return nil, err
				}
				return s.client.DeployContract(cctx.Context, s.account, code)
			}),
		},
		{
			Name:      "call",
			ArgsUsage: "<contract> <method> [json args]",
			Flags: []cli.Flag{
				verboseFlag,
				&cli.Uint64Flag{Name: "gas", Value: uint64(defaultCallGas)},
				&cli.StringFlag{Name: "deposit", Value: "0"},
			},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if cctx.NArg() < 2 || cctx.NArg() > 3 {
					return nil, xerrors.New("call expects a contract, a method and optional arguments")
				}
				contract, err := argAccount(cctx, 0)
				if err != nil {
					return nil, err
				}
				deposit, err := types.ParseBalance(cctx.String("deposit"))
				if err != nil {
					return nil, err
				}
				args := []byte(cctx.Args().Get(2))
				if len(args) == 0 {
					args = []byte("{}")
				}
				return s.client.FunctionCall(cctx.Context, s.account, contract, cctx.Args().Get(1), args,
					types.Gas(cctx.Uint64("gas")), deposit)
			}),
		},
		{
			Name:      "create-account",
			ArgsUsage: "<new account> <public key> <amount>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 3); err != nil {
					return nil, err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return nil, err
				}
				pk, err := crypto.ParsePublicKey(cctx.Args().Get(1))
				if err != nil {
					return nil, err
				}
				amount, err := argBalance(cctx, 2)
				if err != nil {
					return nil, err
				}
				return s.client.CreateAccount(cctx.Context, s.account, id, pk, amount)
			}),
		},
		{
			Name:      "add-key",
			ArgsUsage: "<public key>",
			Flags:     append([]cli.Flag{verboseFlag}, accessKeyFlags...),
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 1); err != nil {
					return nil, err
				}
				pk, err := crypto.ParsePublicKey(cctx.Args().First())
				if err != nil {
					return nil, err
				}
				key, err := accessKeyFromFlags(cctx)
				if err != nil {
					return nil, err
				}
				return s.client.AddKey(cctx.Context, s.account, pk, key)
			}),
		},
		{
			Name:      "delete-key",
			ArgsUsage: "<public key>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 1); err != nil {
					return nil, err
				}
				pk, err := crypto.ParsePublicKey(cctx.Args().First())
				if err != nil {
					return nil, err
				}
				return s.client.DeleteKey(cctx.Context, s.account, pk)
			}),
		},
		{
			Name:      "swap-key",
			ArgsUsage: "<old public key> <new public key>",
			Flags:     append([]cli.Flag{verboseFlag}, accessKeyFlags...),
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 2); err != nil {
					return nil, err
				}
				oldPK, err := crypto.ParsePublicKey(cctx.Args().Get(0))
				if err != nil {
					return nil, err
				}
				newPK, err := crypto.ParsePublicKey(cctx.Args().Get(1))
				if err != nil {
					return nil, err
				}
				key, err := accessKeyFromFlags(cctx)
				if err != nil {
					return nil, err
				}
				return s.client.SwapKey(cctx.Context, s.account, oldPK, newPK, key)
			}),
		},
		{
			Name:      "delete-account",
			Usage:     "delete an account, sending what it holds to the signer",
			ArgsUsage: "<account>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 1); err != nil {
					return nil, err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return nil, err
				}
				return s.client.DeleteAccount(cctx.Context, s.account, id)
			}),
		},
		{
			Name:      "stake",
			Usage:     "lock amount with the signer's key as validator key, 0 unstakes",
			ArgsUsage: "<amount>",
			Flags:     []cli.Flag{verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 1); err != nil {
					return nil, err
				}
				amount, err := argBalance(cctx, 0)
				if err != nil {
					return nil, err
				}
				return s.client.Stake(cctx.Context, s.account, s.rpc.Signer().PublicKey(), amount)
			}),
		},
	},
}
