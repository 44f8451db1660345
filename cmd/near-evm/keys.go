package main

import (
	"crypto/rand"

	"github.com/urfave/cli/v2"

	"github.com/L5dxb/near-evm/pkg/crypto"
)

type keyPair struct {
	PublicKey string `json:"publicKey"`
	SecretKey string `json:"secretKey,omitempty"`
}

var keysCmd = &cli.Command{
	Name:  "keys",
	Usage: "manage ed25519 keys",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "generate a key pair, or derive one with --seed",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "seed", Usage: "derive the key from a seed string"},
			},
			Action: func(cctx *cli.Context) error {
				var (
					signer *crypto.InMemorySigner
					err    error
				)
				if seed := cctx.String("seed"); seed != "" {
					signer = crypto.NewInMemorySignerFromSeed(seed)
				} else if signer, err = crypto.GenerateInMemorySigner(rand.Reader); err != nil {
					return err
				}
				return printJSON(cctx, &keyPair{
					PublicKey: signer.PublicKey().String(),
					SecretKey: signer.SecretKey(),
				})
			},
		},
		{
			Name:  "show",
			Usage: "print the public key of the configured signer",
			Action: func(cctx *cli.Context) error {
				cfg, err := loadConfig(cctx)
				if err != nil {
					return err
				}
				signer, err := signerFromConfig(cfg.Client)
				if err != nil {
					return err
				}
				return printJSON(cctx, &keyPair{PublicKey: signer.PublicKey().String()})
			},
		},
	},
}
