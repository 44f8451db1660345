package main

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/evmcall"
	"github.com/L5dxb/near-evm/pkg/types"
)

var evmFlag = &cli.StringFlag{
	Name:  "evm",
	Usage: "account holding the EVM contract, the signer when unset",
}

func harness(cctx *cli.Context, s *session) (*evmcall.Harness, error) {
	evmID := s.account
	if id := cctx.String("evm"); id != "" {
		var err error
		if evmID, err = types.ParseAccountID(id); err != nil {
			return nil, err
		}
	}
	return evmcall.NewHarness(s.client, s.account, evmID), nil
}

func readHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}

var evmCmd = &cli.Command{
	Name:  "evm",
	Usage: "deploy and call contracts in the EVM",
	Subcommands: []*cli.Command{
		{
			Name:      "deploy",
			Usage:     "store the hex bytecode in a file under contract",
			ArgsUsage: "<contract> <bytecode file>",
			Flags:     []cli.Flag{evmFlag, verboseFlag},
			Action: outcomeAction(func(cctx *cli.Context, s *session) (*types.FinalExecutionOutcome, error) {
				if err := requireArgs(cctx, 2); err != nil {
					return nil, err
				}
				raw, err := os.ReadFile(cctx.Args().Get(1))
				if err != nil {
					return nil, err
				}
				bytecode, err := readHex(string(raw))
				if err != nil {
					return nil, xerrors.Errorf("bytecode is not hex: %w", err)
				}
				h, err := harness(cctx, s)
				if err != nil {
					return nil, err
				}
				return h.DeployCode(cctx.Context, cctx.Args().Get(0), bytecode)
			}),
		},
		{
			Name:      "run",
			Usage:     "run hex encoded input against contract and print the returned data",
			ArgsUsage: "<contract> <hex input>",
			Flags:     []cli.Flag{evmFlag, verboseFlag},
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if err := requireArgs(cctx, 2); err != nil {
					return err
				}
				input, err := readHex(cctx.Args().Get(1))
				if err != nil {
					return xerrors.Errorf("input is not hex: %w", err)
				}
				h, err := harness(cctx, s)
				if err != nil {
					return err
				}
				out, err := h.RunCommand(cctx.Context, cctx.Args().Get(0), input)
				if err != nil {
					return err
				}
				if err := printOutcome(cctx, out); err != nil {
					return err
				}
				data, err := evmcall.DecodeResult(out)
				if err != nil {
					return err
				}
				_, err = cctx.App.Writer.Write([]byte("0x" + hex.EncodeToString(data) + "\n"))
				return err
			}),
		},
		{
			Name:      "address",
			Usage:     "print the EVM address of an account",
			ArgsUsage: "<account>",
			Action: func(cctx *cli.Context) error {
				if err := requireArgs(cctx, 1); err != nil {
					return err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				_, err = cctx.App.Writer.Write([]byte(evmcall.SenderToAddress(id).Hex() + "\n"))
				return err
			},
		},
	},
}
