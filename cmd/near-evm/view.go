package main

import (
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

var viewCmd = &cli.Command{
	Name:  "view",
	Usage: "query chain state",
	Subcommands: []*cli.Command{
		{
			Name:  "status",
			Usage: "print the node status",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				st, err := s.node.Status(cctx.Context)
				if err != nil {
					return err
				}
				return printJSON(cctx, st)
			}),
		},
		{
			Name:      "account",
			ArgsUsage: "<account>",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if err := requireArgs(cctx, 1); err != nil {
					return err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				acc, err := s.rpc.ViewAccount(cctx.Context, id)
				if err != nil {
					return err
				}
				return printJSON(cctx, acc)
			}),
		},
		{
			Name:      "key",
			Usage:     "print an access key, the signer's key when none is given",
			ArgsUsage: "<account> [public key]",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if cctx.NArg() < 1 || cctx.NArg() > 2 {
					return xerrors.New("key expects an account and an optional public key")
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				pk := s.rpc.Signer().PublicKey()
				if cctx.NArg() == 2 {
					if pk, err = crypto.ParsePublicKey(cctx.Args().Get(1)); err != nil {
						return err
					}
				}
				key, err := s.rpc.GetAccessKey(cctx.Context, id, pk)
				if err != nil {
					return err
				}
				return printJSON(cctx, key)
			}),
		},
		{
			Name:      "keys",
			ArgsUsage: "<account>",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if err := requireArgs(cctx, 1); err != nil {
					return err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				keys, err := s.node.ViewAccessKeyList(cctx.Context, id)
				if err != nil {
					return err
				}
				return printJSON(cctx, keys)
			}),
		},
		{
			Name:      "state",
			ArgsUsage: "<account> [key prefix]",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if cctx.NArg() < 1 {
					return xerrors.New("state expects an account")
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				st, err := s.rpc.ViewState(cctx.Context, id, []byte(cctx.Args().Get(1)))
				if err != nil {
					return err
				}
				return printJSON(cctx, st)
			}),
		},
		{
			Name:      "block",
			Usage:     "print a block, the head when no height is given",
			ArgsUsage: "[height]",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				var height types.BlockHeight
				if cctx.NArg() > 0 {
					h, err := strconv.ParseUint(cctx.Args().First(), 10, 64)
					if err != nil {
						return xerrors.Errorf("invalid height: %w", err)
					}
					height = types.BlockHeight(h)
				} else {
					h, err := s.rpc.GetBestHeight(cctx.Context)
					if err != nil {
						return err
					}
					height = h
				}
				blk, err := s.rpc.GetBlock(cctx.Context, height)
				if err != nil {
					return err
				}
				if blk == nil {
					return xerrors.Errorf("no block at height %d", height)
				}
				return printJSON(cctx, blk)
			}),
		},
		{
			Name:      "tx",
			Usage:     "print the final outcome of a transaction",
			ArgsUsage: "<hash>",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if err := requireArgs(cctx, 1); err != nil {
					return err
				}
				hash, err := types.ParseCryptoHash(cctx.Args().First())
				if err != nil {
					return err
				}
				out, err := s.rpc.GetTransactionFinalResult(cctx.Context, hash)
				if err != nil {
					return err
				}
				return printJSON(cctx, out)
			}),
		},
		{
			Name:      "balance",
			ArgsUsage: "<account>",
			Action: withSession(func(cctx *cli.Context, s *session) error {
				if err := requireArgs(cctx, 1); err != nil {
					return err
				}
				id, err := argAccount(cctx, 0)
				if err != nil {
					return err
				}
				b, err := s.client.ViewBalance(cctx.Context, id)
				if err != nil {
					return err
				}
				_, err = cctx.App.Writer.Write([]byte(b.String() + "\n"))
				return err
			}),
		},
	},
}
