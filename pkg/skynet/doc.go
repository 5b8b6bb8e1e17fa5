// Package skynet is a client for the Skynet telemetry-assessment service.
//
// An agent reports its own operating telemetry and receives three signals
// back: cognitive pressure, output verbosity drift and session half-life.
// The service does all the scoring; this package only builds requests,
// validates responses and degrades gracefully.
//
// Every assessment has three entry points:
//
//	a := client.EvaluatePressure(ctx, in)          // never fails
//	o := client.EvaluatePressureOutcome(ctx, in)   // o.Fallback, o.Err
//	a, err := client.TryEvaluatePressure(ctx, in)  // err is *FailureError
//
// When the service cannot be reached, times out, answers with a non-2xx
// status, or returns a body that does not match the wire schema, the first
// two return a fixed fallback record (FallbackPressure, FallbackVerbosity,
// FallbackHalfLife). Failed calls are never retried.
//
// A Client is configured with functional options and is immutable after
// New, so one instance may be shared across goroutines.
package skynet
