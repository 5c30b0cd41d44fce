package testkit

import "testing"

// Swap points a package seam at replacement until t finishes
// Tests that swap the same seam must not run in parallel
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}
