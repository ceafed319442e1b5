package probe

import (
	"context"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChecker{
		Client: &http.Client{
			Timeout: timeout,
			// Redirects count as failures, so never follow them.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return CheckResult{Success: false, Message: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return CheckResult{Success: false, Message: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()

	// Only a plain 200 counts as up. 204, 301 and friends are failures on
	// purpose; do not broaden this without changing the alerting policy too.
	return CheckResult{
		Success:    resp.StatusCode == http.StatusOK,
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		LatencyMS:  latency,
	}
}
