// Package preflight runs the environment checks behind `docqa doctor`.
//
// It validates:
//   - Free disk space where the snapshot is written (minimum 100MB)
//   - Write permission in the snapshot directory
//   - That the snapshot exists, loads and passes its integrity checks
//
// A missing snapshot is a warning; a snapshot that fails to load is a
// critical failure.
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, target)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
