package probe

import "context"

// CheckResult is the outcome of a single probe.
//
// StatusCode is 0 when the request could not complete at all (DNS failure,
// timeout, connection refused); Message then carries the transport error.
type CheckResult struct {
	Success    bool
	StatusCode int
	Message    string
	LatencyMS  float64
}

// Checker performs a single check for a given target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
