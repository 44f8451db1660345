package main

import (
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
)

const configFilename = "config.toml"

func repoDir(cctx *cli.Context) (string, error) {
	return homedir.Expand(cctx.String(flagRepo))
}

// loadConfig reads the repo config, falling back to defaults when the repo was never
// initialized. Flags override the file.
func loadConfig(cctx *cli.Context) (*config.Config, error) {
	dir, err := repoDir(cctx)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, configFilename)

	cfg := config.NewDefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.ReadFile(path); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if api := cctx.String(flagAPI); api != "" {
		cfg.Client.NodeAPIInfo = api
	}
	if acct := cctx.String(flagAccount); acct != "" {
		cfg.Client.AccountID = acct
	}
	return cfg, nil
}

func setupLogging(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if env := os.Getenv("NEAREVM_LOG_LEVEL"); env != "" {
		level = env
	}
	if err := logging.SetLogLevel("*", level); err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	for system, lvl := range cfg.Log.Subsystems {
		if err := logging.SetLogLevel(system, lvl); err != nil {
			return errors.Wrapf(err, "log level for %s", system)
		}
	}
	return nil
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write a default config.toml with a new api secret to the repo",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config"},
	},
	Action: func(cctx *cli.Context) error {
		dir, err := repoDir(cctx)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		path := filepath.Join(dir, configFilename)
		if _, err := os.Stat(path); err == nil && !cctx.Bool("force") {
			return errors.Errorf("%s already exists", path)
		}
		cfg := config.NewDefaultConfig()
		if cfg.API.Secret, err = jwtauth.NewSecret(); err != nil {
			return err
		}
		if err := cfg.WriteFile(path); err != nil {
			return err
		}
		log.Infof("initialized repo at %s", dir)
		return nil
	},
}

var configCmd = &cli.Command{
	Name:      "config",
	Usage:     "get or set a config value, e.g. 'config node.chainId' or 'config node.chainId '\"dev\"''",
	ArgsUsage: "<key> [toml value]",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() < 1 || cctx.NArg() > 2 {
			return cli.ShowSubcommandHelp(cctx)
		}
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		key := cctx.Args().Get(0)
		if cctx.NArg() == 2 {
			if err := cfg.Set(key, cctx.Args().Get(1)); err != nil {
				return err
			}
			dir, err := repoDir(cctx)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			if err := cfg.WriteFile(filepath.Join(dir, configFilename)); err != nil {
				return err
			}
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		return printJSON(cctx, v)
	},
}
