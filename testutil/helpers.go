package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/mysqlsvc/component"
)

// Start starts c and stops it when the test ends. A failed Start is fatal.
func Start(t testing.TB, c component.Component) {
	t.Helper()
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start %s: %v", c.Name(), err)
	}
	t.Cleanup(func() {
		if err := c.Stop(ctx); err != nil {
			t.Errorf("stop %s: %v", c.Name(), err)
		}
	})
}

// Reset resets c, failing the test on error.
func Reset(t testing.TB, c TestComponent) {
	t.Helper()
	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("reset %s: %v", c.Name(), err)
	}
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
