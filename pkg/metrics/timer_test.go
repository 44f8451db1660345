package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opencensus.io/stats/view"

	tf "github.com/L5dxb/near-evm/pkg/testhelpers/testflags"
)

func TestTimerSimple(t *testing.T) {
	tf.BadUnitTestWithSideEffects(t)

	ctx := context.Background()

	testTimer := NewTimerMs("testName", "testDesc")
	// views stay registered after a test exits
	defer view.Unregister(testTimer.view)

	assert.Equal(t, "testName", testTimer.view.Name)
	assert.Equal(t, "testDesc", testTimer.view.Description)

	sw := testTimer.Start(ctx)
	d := sw.Stop(ctx)
	assert.False(t, sw.start.IsZero())
	assert.True(t, d >= 0)
}

func TestDuplicateTimersPanics(t *testing.T) {
	tf.BadUnitTestWithSideEffects(t)

	first := NewTimerMs("dupTimer", "testDesc")
	defer view.Unregister(first.view)

	// same name with a different aggregation is rejected by the view registry
	assert.Panics(t, func() {
		NewInt64Counter("dupTimer", "testDesc")
	})
}
