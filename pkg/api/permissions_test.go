package api_test

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/pkg/api"
	th "github.com/L5dxb/near-evm/pkg/testhelpers"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
)

func TestPermissionsFor(t *testing.T) {
	tf.UnitTest(t)

	perms, err := api.PermissionsFor("write")
	require.NoError(t, err)
	assert.Equal(t, []auth.Permission{api.PermRead, api.PermWrite}, perms)

	perms, err = api.PermissionsFor("admin")
	require.NoError(t, err)
	assert.Equal(t, api.AllPermissions, perms)

	perms, err = api.PermissionsFor("")
	require.NoError(t, err)
	assert.Empty(t, perms)

	_, err = api.PermissionsFor("sign")
	assert.Error(t, err)
}

func TestPermissionedFullNode(t *testing.T) {
	tf.UnitTest(t)

	n := th.NewTestNode(t)
	full := api.PermissionedFullNode(n, []auth.Permission{api.PermRead})

	stx, err := types.NewSignedTransaction(context.Background(), th.SignerFor(th.AliceAccount), th.AliceAccount, th.BobAccount, 1,
		types.EmptyHash, []types.Action{&types.TransferAction{Deposit: types.NewBalance(1)}})
	require.NoError(t, err)
	raw, err := stx.Serialize()
	require.NoError(t, err)

	// without a token the default permissions apply
	ctx := context.Background()
	_, err = full.Status(ctx)
	require.NoError(t, err)
	_, err = full.BroadcastTxCommit(ctx, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing permission")

	readOnly := auth.WithPerm(ctx, []auth.Permission{api.PermRead})
	_, err = full.BroadcastTxAsync(readOnly, raw)
	assert.Error(t, err)

	none := auth.WithPerm(ctx, nil)
	_, err = full.ViewAccount(none, th.AliceAccount)
	assert.Error(t, err)

	writer := auth.WithPerm(ctx, []auth.Permission{api.PermRead, api.PermWrite})
	res, err := full.BroadcastTxCommit(writer, raw)
	require.NoError(t, err)
	require.False(t, res.Rejected(), res.Rejection)
	assert.True(t, res.Outcome.Status.IsSuccess())
}
