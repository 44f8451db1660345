package node_test

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/app/node"
	"github.com/L5dxb/near-evm/pkg/api"
	"github.com/L5dxb/near-evm/pkg/config"
	"github.com/L5dxb/near-evm/pkg/jwtauth"
	th "github.com/L5dxb/near-evm/pkg/testhelpers"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
	"github.com/L5dxb/near-evm/pkg/user"
	"github.com/L5dxb/near-evm/pkg/user/rpcuser"
)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.API.ListenAddress = "/ip4/127.0.0.1/tcp/0"
	cfg.Node.Datastore.Type = "memory"
	return cfg
}

func startNode(t *testing.T, cfg *config.Config, opts ...node.BuilderOpt) *node.Node {
	ctx, cancel := context.WithCancel(context.Background())
	nd, err := node.New(ctx, cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, nd.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- nd.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("node did not stop")
		}
	})
	return nd
}

func mintToken(t *testing.T, nd *node.Node, perm string) string {
	perms, err := api.PermissionsFor(perm)
	require.NoError(t, err)
	token, err := nd.JwtAuth().AuthNew(context.Background(), perms)
	require.NoError(t, err)
	return string(token)
}

func TestDaemonServesRPC(t *testing.T) {
	tf.IntegrationTest(t)

	ctx := context.Background()
	cfg := testConfig()
	secret, err := jwtauth.NewSecret()
	require.NoError(t, err)
	cfg.API.Secret = secret
	nd := startNode(t, cfg)

	full, closer, err := api.DialFullNode(ctx, api.NewAPIInfo(nd.APIAddr(), mintToken(t, nd, "write")))
	require.NoError(t, err)
	defer closer()

	u, err := rpcuser.New(full, th.SignerFor(th.AliceAccount))
	require.NoError(t, err)
	client := user.NewClient(u)
	out, err := client.SendMoney(ctx, th.AliceAccount, th.BobAccount, types.NewBalance(10))
	require.NoError(t, err)
	assert.True(t, out.Status.IsSuccess(), out.Status.String())

	status, err := full.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Node.ChainID, status.ChainID)

	// a token minted from the configured secret outlives the daemon instance
	other, err := jwtauth.NewJwtAuth(secret)
	require.NoError(t, err)
	_, err = other.Verify(ctx, mintToken(t, nd, "read"))
	assert.NoError(t, err)
}

func TestDaemonEnforcesPermissions(t *testing.T) {
	tf.IntegrationTest(t)

	ctx := context.Background()
	nd := startNode(t, testConfig())

	send := func(info api.APIInfo) error {
		full, closer, err := api.NewFullNodeRPC(ctx, httpURL(t, nd), info.AuthHeader())
		require.NoError(t, err)
		defer closer()
		u, err := rpcuser.New(full, th.SignerFor(th.AliceAccount))
		require.NoError(t, err)
		_, err = user.NewClient(u).SendMoney(ctx, th.AliceAccount, th.BobAccount, types.NewBalance(1))
		return err
	}
	view := func(info api.APIInfo) error {
		full, closer, err := api.NewFullNodeRPC(ctx, httpURL(t, nd), info.AuthHeader())
		require.NoError(t, err)
		defer closer()
		_, err = full.Status(ctx)
		return err
	}

	// no token: read only
	anonymous := api.NewAPIInfo(nd.APIAddr(), "")
	require.NoError(t, view(anonymous))
	err := send(anonymous)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing permission")

	reader := api.NewAPIInfo(nd.APIAddr(), mintToken(t, nd, "read"))
	require.NoError(t, view(reader))
	assert.Error(t, send(reader))

	writer := api.NewAPIInfo(nd.APIAddr(), mintToken(t, nd, "write"))
	require.NoError(t, send(writer))

	// a token signed with another secret is refused outright
	foreign, err := jwtauth.NewJwtAuth("")
	require.NoError(t, err)
	token, err := foreign.AuthNew(ctx, api.AllPermissions)
	require.NoError(t, err)
	assert.Error(t, view(api.NewAPIInfo(nd.APIAddr(), string(token))))

	req, err := http.NewRequest(http.MethodPost, httpURL(t, nd), nil)
	require.NoError(t, err)
	req.Header.Set(api.AuthorizationHeader, "Bearer "+string(token))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDaemonWithoutDefaultPermission(t *testing.T) {
	tf.IntegrationTest(t)

	ctx := context.Background()
	cfg := testConfig()
	cfg.API.DefaultPermission = ""
	nd := startNode(t, cfg)

	full, closer, err := api.NewFullNodeRPC(ctx, httpURL(t, nd), nil)
	require.NoError(t, err)
	defer closer()
	_, err = full.Status(ctx)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.API.DefaultPermission = "root"
	bad, err := node.New(ctx, cfg)
	require.NoError(t, err)
	defer bad.Stop(ctx) // nolint: errcheck
	assert.Error(t, bad.Start(ctx))
}

func httpURL(t *testing.T, nd *node.Node) string {
	url, err := api.DialArgs(nd.APIAddr(), api.Version)
	require.NoError(t, err)
	return "http" + url[len("ws"):]
}

func TestDaemonExportsMetrics(t *testing.T) {
	tf.IntegrationTest(t)

	nd := startNode(t, testConfig())
	host, err := api.NewAPIInfo(nd.APIAddr(), "").Host()
	require.NoError(t, err)

	resp, err := http.Get("http://" + host + "/debug/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
}

func TestBadgerDatastorePersists(t *testing.T) {
	tf.IntegrationTest(t)

	ctx := context.Background()
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Node.Datastore.Type = "badgerds"

	nd, err := node.New(ctx, cfg, node.RepoDir(dir))
	require.NoError(t, err)
	u, err := rpcuser.New(nd.Local(), th.SignerFor(th.AliceAccount))
	require.NoError(t, err)
	_, err = user.NewClient(u).SendMoney(ctx, th.AliceAccount, th.BobAccount, types.NewBalance(7))
	require.NoError(t, err)
	require.NoError(t, nd.Stop(ctx))

	nd, err = node.New(ctx, cfg, node.RepoDir(dir))
	require.NoError(t, err)
	defer nd.Stop(ctx) // nolint: errcheck
	status, err := nd.Local().Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.BlockHeight(1), status.LatestBlockHeight)

	_, err = node.OpenDatastore(&config.DatastoreConfig{Type: "leveldb"}, dir)
	assert.Error(t, err)
	_, err = node.OpenDatastore(&config.DatastoreConfig{Type: "memory"}, filepath.Join(dir, "unused"))
	assert.NoError(t, err)
}
