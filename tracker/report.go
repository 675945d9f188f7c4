package tracker

import (
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPReporter pushes watch time to the onboarding API. Failures are
// logged and swallowed so playback is never interrupted.
type HTTPReporter struct {
	client  *resty.Client
	baseURL string
	token   string
}

// NewHTTPReporter builds a reporter against the given API base URL using
// the caller's bearer token.
func NewHTTPReporter(baseURL, token string) *HTTPReporter {
	client := resty.New().SetTimeout(10 * time.Second)
	return &HTTPReporter{
		client:  client,
		baseURL: baseURL,
		token:   token,
	}
}

// ReportVideoTime posts accumulated watch seconds for a step.
func (r *HTTPReporter) ReportVideoTime(flowID, stepID uint, seconds int) {
	url := fmt.Sprintf("%s/onboarding/flow/%d/step/%d/video-time", r.baseURL, flowID, stepID)

	resp, err := r.client.R().
		SetAuthToken(r.token).
		SetBody(map[string]interface{}{"seconds": seconds}).
		Post(url)
	if err != nil {
		log.Printf("[TRACKER] Failed to report video time: %v", err)
		return
	}
	if resp.StatusCode() != 200 {
		log.Printf("[TRACKER] Video time report rejected: %s", resp.Status())
	}
}
