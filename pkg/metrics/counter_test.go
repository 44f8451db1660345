package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"

	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
)

func TestCounterSumsIncrements(t *testing.T) {
	tf.BadUnitTestWithSideEffects(t)

	ctx := context.Background()
	c := NewInt64Counter("testCounter", "counts")
	defer view.Unregister(c.view)

	c.Inc(ctx, 1)
	c.Inc(ctx, 3)

	rows, err := view.RetrieveData("testCounter")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(4), rows[0].Data.(*view.SumData).Value)
}

func TestDuplicateCounterPanics(t *testing.T) {
	tf.BadUnitTestWithSideEffects(t)

	first := NewInt64Counter("dupCounter", "counts")
	defer view.Unregister(first.view)

	assert.Panics(t, func() {
		NewTimerMs("dupCounter", "other")
	})
}
