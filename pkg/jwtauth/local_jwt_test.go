package jwtauth

import (
	"context"
	"strings"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L5dxb/near-evm/pkg/api"
	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
)

func TestTokenRoundTrip(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	secret, err := NewSecret()
	require.NoError(t, err)
	a, err := NewJwtAuth(secret)
	require.NoError(t, err)

	perms, err := api.PermissionsFor("write")
	require.NoError(t, err)
	token, err := a.AuthNew(ctx, perms)
	require.NoError(t, err)

	allow, err := a.Verify(ctx, string(token))
	require.NoError(t, err)
	assert.Equal(t, []auth.Permission{api.PermRead, api.PermWrite}, allow)

	// the same secret verifies tokens across instances
	b, err := NewJwtAuth(secret)
	require.NoError(t, err)
	_, err = b.Verify(ctx, string(token))
	assert.NoError(t, err)

	_, err = a.AuthNew(ctx, []auth.Permission{"sign"})
	assert.Error(t, err)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	tf.UnitTest(t)

	ctx := context.Background()
	a, err := NewJwtAuth("")
	require.NoError(t, err)
	other, err := NewJwtAuth("")
	require.NoError(t, err)

	token, err := other.AuthNew(ctx, api.AllPermissions)
	require.NoError(t, err)
	_, err = a.Verify(ctx, string(token))
	assert.Error(t, err)

	_, err = a.Verify(ctx, "not-a-token")
	assert.Error(t, err)

	// a payload edited after signing fails the signature check
	mine, err := a.AuthNew(ctx, []auth.Permission{api.PermRead})
	require.NoError(t, err)
	parts := strings.Split(string(mine), ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + strings.Split(string(token), ".")[1] + "." + parts[2]
	_, err = a.Verify(ctx, forged)
	assert.Error(t, err)
}

func TestNewJwtAuthChecksSecret(t *testing.T) {
	tf.UnitTest(t)

	_, err := NewJwtAuth("zz")
	assert.Error(t, err)
	_, err = NewJwtAuth("abcd")
	assert.Error(t, err)
}
