package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/app/node"
	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/crypto"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
)

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp(&out)
	err := app.Run(append([]string{"near-evm"}, args...))
	return out.String(), err
}

func TestInitAndConfig(t *testing.T) {
	tf.UnitTest(t)

	repo := t.TempDir()
	_, err := run(t, "--repo", repo, "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(repo, configFilename))
	require.NoError(t, err)

	_, err = run(t, "--repo", repo, "init")
	assert.Error(t, err)

	out, err := run(t, "--repo", repo, "config", "node.chainId", `"devnet"`)
	require.NoError(t, err)
	assert.Equal(t, `"devnet"`, strings.TrimSpace(out))

	cfg, err := config.ReadFile(filepath.Join(repo, configFilename))
	require.NoError(t, err)
	assert.Equal(t, "devnet", cfg.Node.ChainID)

	out, err = run(t, "--repo", repo, "config", "api.listenAddress")
	require.NoError(t, err)
	assert.Equal(t, `"/ip4/127.0.0.1/tcp/3570"`, strings.TrimSpace(out))
	assert.Len(t, cfg.API.Secret, 2*jwtauth.SecretSize)

	token, err := run(t, "--repo", repo, "auth", "create-token", "--perm", "read")
	require.NoError(t, err)
	a, err := jwtauth.NewJwtAuth(cfg.API.Secret)
	require.NoError(t, err)
	perms, err := a.Verify(context.Background(), strings.TrimSpace(token))
	require.NoError(t, err)
	assert.Equal(t, []auth.Permission{api.PermRead}, perms)

	out, err = run(t, "--repo", repo, "auth", "api-info", "--perm", "write")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "NEAREVM_API_INFO="))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), ":/ip4/127.0.0.1/tcp/3570/version/v0"))

	_, err = run(t, "--repo", repo, "auth", "create-token", "--perm", "root")
	assert.Error(t, err)
	_, err = run(t, "--repo", t.TempDir(), "auth", "create-token", "--perm", "read")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	tf.UnitTest(t)

	out, err := run(t, "--repo", t.TempDir(), "keys", "new", "--seed", "alice.near")
	require.NoError(t, err)
	var kp keyPair
	require.NoError(t, json.Unmarshal([]byte(out), &kp))
	assert.Equal(t, crypto.NewInMemorySignerFromSeed("alice.near").PublicKey().String(), kp.PublicKey)

	signer, err := crypto.ParseSecretKey(kp.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, signer.PublicKey().String())

	out, err = run(t, "--repo", t.TempDir(), "keys", "show")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &kp))
	assert.Equal(t, crypto.NewInMemorySignerFromSeed("test.near").PublicKey().String(), kp.PublicKey)
}

func TestEVMAddress(t *testing.T) {
	tf.UnitTest(t)

	out, err := run(t, "--repo", t.TempDir(), "evm", "address", "alice.near")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "0x"))
	assert.Len(t, strings.TrimSpace(out), 42)

	_, err = run(t, "--repo", t.TempDir(), "evm", "address")
	assert.Error(t, err)
}

func TestCommandsAgainstDaemon(t *testing.T) {
	tf.IntegrationTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	repo := t.TempDir()
	_, err := run(t, "--repo", repo, "init")
	require.NoError(t, err)
	cfg, err := config.ReadFile(filepath.Join(repo, configFilename))
	require.NoError(t, err)
	cfg.API.ListenAddress = "/ip4/127.0.0.1/tcp/0"
	cfg.Node.Datastore.Type = "memory"
	nd, err := node.New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, nd.Start(ctx))
	done := make(chan error, 1)
	go func() { done <- nd.Serve(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// without a token the daemon only answers views
	_, err = run(t, "--repo", repo, "--api", nd.APIAddr(), "tx", "send", "bob.near", "250")
	require.Error(t, err)

	token, err := run(t, "--repo", repo, "auth", "create-token", "--perm", "write")
	require.NoError(t, err)
	base := []string{"--repo", repo, "--api", strings.TrimSpace(token) + ":" + nd.APIAddr()}

	out, err := run(t, append(base, "tx", "send", "bob.near", "250")...)
	require.NoError(t, err)
	assert.Contains(t, out, "SuccessValue")

	out, err = run(t, append(base, "view", "balance", "bob.near")...)
	require.NoError(t, err)
	bob := types.MustParseBalance("1000000000000000000000000000").Add(types.NewBalance(250))
	assert.Equal(t, bob.String(), strings.TrimSpace(out))

	out, err = run(t, append(base, "view", "status")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"LatestBlockHeight": 1`)

	pk := crypto.NewInMemorySignerFromSeed("extra").PublicKey().String()
	_, err = run(t, append(base, "tx", "add-key", "--receiver", "bob.near", "--method", "get_value", pk)...)
	require.NoError(t, err)
	out, err = run(t, append(base, "view", "key", "test.near", pk)...)
	require.NoError(t, err)
	assert.Contains(t, out, "bob.near")

	_, err = run(t, append(base, "tx", "add-key", "--method", "get_value", pk)...)
	assert.Error(t, err)

	_, err = run(t, append(base, "view", "account", "nobody.near")...)
	assert.Error(t, err)
}
