package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
	"github.com/L5dxb/near-evm/pkg/types"
)

func TestAccountIDValidation(t *testing.T) {
	tf.UnitTest(t)

	valid := []string{"ok", "bowen", "ek-2", "ek.near", "com", "google.com", "bowen.near", "illia.cheap-accounts.near", "max_99.near", "100", "near2019", "over.9000", "a.bro", "bro.a"}
	for _, s := range valid {
		_, err := types.ParseAccountID(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{"", "a", "A", "Abc", "-near", "near-", "jake..near", "a..near", "_near", "near_", "ek_.near", "bowen.near.", ".bowen", "a b", "a@b",
		"01234567890123456789012345678901234567890123456789012345678901234"}
	for _, s := range invalid {
		_, err := types.ParseAccountID(s)
		assert.Error(t, err, s)
	}
}

func TestBalance(t *testing.T) {
	tf.UnitTest(t)

	var zero types.Balance
	assert.True(t, zero.IsZero())
	assert.Equal(t, "0", zero.String())

	a := types.NewBalance(150)
	b := types.NewBalance(50)
	assert.Equal(t, "200", a.Add(b).String())
	assert.Equal(t, "100", a.Sub(b).String())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.True(t, a.Equals(types.NewBalance(150)))
	assert.True(t, b.Sub(a).IsNegative())

	_, err := types.ParseBalance("-1")
	assert.Error(t, err)
	_, err = types.ParseBalance("abc")
	assert.Error(t, err)
}

func TestBalanceEncoding(t *testing.T) {
	tf.UnitTest(t)

	big := types.MustParseBalance("340282366920938463463374607431768211455")

	raw, err := types.Marshal(big)
	require.NoError(t, err)
	var decoded types.Balance
	require.NoError(t, types.Unmarshal(raw, &decoded))
	assert.True(t, big.Equals(decoded))

	var zero types.Balance
	raw, err = types.Marshal(zero)
	require.NoError(t, err)
	require.NoError(t, types.Unmarshal(raw, &decoded))
	assert.True(t, decoded.IsZero())

	js, err := json.Marshal(map[string]types.Balance{"amount": big})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":"340282366920938463463374607431768211455"}`, string(js))

	var back map[string]types.Balance
	require.NoError(t, json.Unmarshal(js, &back))
	assert.True(t, big.Equals(back["amount"]))
}

func TestCryptoHashText(t *testing.T) {
	tf.UnitTest(t)

	h := types.HashBytes([]byte("hello"))
	parsed, err := types.ParseCryptoHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
	assert.False(t, h.IsEmpty())
	assert.True(t, types.EmptyHash.IsEmpty())

	_, err = types.ParseCryptoHash("3yZe7d")
	assert.Error(t, err)
}

func TestFinalOutcomeErr(t *testing.T) {
	tf.UnitTest(t)

	ok := &types.FinalExecutionOutcome{Status: types.FinalExecutionStatus{Kind: types.FinalSuccessValue}}
	assert.NoError(t, ok.Err())
	assert.True(t, ok.Status.IsSuccess())
	assert.True(t, ok.Status.IsFinal())

	failed := &types.FinalExecutionOutcome{Status: types.FinalExecutionStatus{
		Kind:    types.FinalFailure,
		Failure: &types.ExecutionError{ActionIndex: 0, Kind: "AccountDoesNotExist", Message: "bob.near"},
	}}
	assert.EqualError(t, failed.Err(), "action #0 AccountDoesNotExist: bob.near")

	js, err := json.Marshal(failed.Status)
	require.NoError(t, err)
	var back types.FinalExecutionStatus
	require.NoError(t, json.Unmarshal(js, &back))
	assert.Equal(t, types.FinalFailure, back.Kind)
	assert.Contains(t, string(js), `"Kind":"Failure"`)
}

func TestDeriveReceiptID(t *testing.T) {
	tf.UnitTest(t)

	parent := types.HashBytes([]byte("tx"))
	assert.NotEqual(t, types.DeriveReceiptID(parent, 0), types.DeriveReceiptID(parent, 1))
	assert.Equal(t, types.DeriveReceiptID(parent, 3), types.DeriveReceiptID(parent, 3))
}
