// Package testutil provides lifecycle helpers for tests that drive
// components.
//
//	func TestFeature(t *testing.T) {
//	    svc := dbtest.New()
//	    testutil.Start(t, svc) // stopped automatically when the test ends
//	    testutil.Eventually(t, time.Second, func() bool { return svc.Health(ctx).Healthy() })
//	}
package testutil
