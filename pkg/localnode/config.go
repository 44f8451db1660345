package localnode

import (
	"time"

	"github.com/raulk/clock"
	"golang.org/x/xerrors"

	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/types"
)

// GenesisAccount is an account created with the genesis block.
type GenesisAccount struct {
	AccountID types.AccountID
	Balance   types.Balance
	PublicKey crypto.PublicKey
}

// Config configures a Node.
type Config struct {
	ChainID string
	// BlockInterval is the time between blocks. Zero produces a block for every submission.
	BlockInterval time.Duration
	Genesis       []GenesisAccount
	// Runtime executes function calls, NoopRuntime when nil.
	Runtime ContractRuntime
	// Clock drives block production and timestamps, the system clock when nil.
	Clock clock.Clock
}

// FromConfig converts the [node] section of the configuration file.
func FromConfig(cfg *config.NodeConfig) (Config, error) {
	out := Config{
		ChainID:       cfg.ChainID,
		BlockInterval: time.Duration(cfg.BlockInterval),
	}
	for i, g := range cfg.Genesis {
		id, err := types.ParseAccountID(g.AccountID)
		if err != nil {
			return Config{}, xerrors.Errorf("genesis account %d: %w", i, err)
		}
		balance, err := types.ParseBalance(g.Balance)
		if err != nil {
			return Config{}, xerrors.Errorf("genesis account %s: %w", id, err)
		}
		var pk crypto.PublicKey
		switch {
		case g.PublicKey != "":
			pk, err = crypto.ParsePublicKey(g.PublicKey)
			if err != nil {
				return Config{}, xerrors.Errorf("genesis account %s: %w", id, err)
			}
		case g.Seed != "":
			pk = crypto.NewInMemorySignerFromSeed(g.Seed).PublicKey()
		default:
			return Config{}, xerrors.Errorf("genesis account %s has neither publicKey nor seed", id)
		}
		out.Genesis = append(out.Genesis, GenesisAccount{AccountID: id, Balance: balance, PublicKey: pk})
	}
	return out, nil
}
