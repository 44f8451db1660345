package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
)

var authCmd = &cli.Command{
	Name:  "auth",
	Usage: "mint api tokens signed with api.secret",
	Subcommands: []*cli.Command{
		authCreateTokenCmd,
		authAPIInfoCmd,
	},
}

var permFlag = &cli.StringFlag{
	Name:     "perm",
	Usage:    "permission to grant: read, write or admin",
	Required: true,
}

// mintToken signs a token for perm and the permissions it implies with the repo secret.
func mintToken(cctx *cli.Context) (string, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return "", err
	}
	if cfg.API.Secret == "" {
		return "", xerrors.New("api.secret is not set, run init or set it with config")
	}
	perms, err := api.PermissionsFor(cctx.String("perm"))
	if err != nil {
		return "", err
	}
	a, err := jwtauth.NewJwtAuth(cfg.API.Secret)
	if err != nil {
		return "", err
	}
	token, err := a.AuthNew(cctx.Context, perms)
	if err != nil {
		return "", err
	}
	return string(token), nil
}

var authCreateTokenCmd = &cli.Command{
	Name:  "create-token",
	Usage: "print a new api token",
	Flags: []cli.Flag{permFlag},
	Action: func(cctx *cli.Context) error {
		token, err := mintToken(cctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cctx.App.Writer, token)
		return err
	},
}

var authAPIInfoCmd = &cli.Command{
	Name:  "api-info",
	Usage: "print NEAREVM_API_INFO for the daemon of this repo with a new token",
	Flags: []cli.Flag{permFlag},
	Action: func(cctx *cli.Context) error {
		token, err := mintToken(cctx)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		addr, err := api.WithVersion(cfg.API.ListenAddress, api.Version)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cctx.App.Writer, "NEAREVM_API_INFO=%s\n", api.NewAPIInfo(addr, token))
		return err
	},
}
