package testflags

import (
	"flag"
	"testing"
)

// Unit tests run by default. Integration tests talk to a node over a real
// listener and can be switched off with -integration=false.
var (
	unitTest        = flag.Bool("unit", true, "run the unit go tests")
	integrationTest = flag.Bool("integration", true, "run the integration go tests (local listeners)")
)

// UnitTest runs the calling test in parallel unless unit tests were disabled
// and -short was not given.
func UnitTest(t *testing.T) {
	if !*unitTest && !testing.Short() {
		t.SkipNow()
	}
	t.Parallel()
}

// IntegrationTest runs the calling test in parallel iff -integration is set.
func IntegrationTest(t *testing.T) {
	if !*integrationTest {
		t.SkipNow()
	}
	t.Parallel()
}

// BadUnitTestWithSideEffects is UnitTest without t.Parallel, for tests that
// touch process-wide state such as registered opencensus views.
func BadUnitTestWithSideEffects(t *testing.T) {
	if !*unitTest && !testing.Short() {
		t.SkipNow()
	}
}
