// Package accounting wraps each dispatch in start/stop timing, rough token
// estimation and a best-effort hand-off to the external analytics service.
// Analytics must never slow or fail the primary response path: submission
// runs on a detached goroutine with its own timeout and every failure is
// logged and dropped.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-service/internal/metrics"

	"go.uber.org/zap"
)

const submitTimeout = 5 * time.Second

// CallRecord is the analytics payload, immutable after construction. Field
// names follow the analytics service's JSON contract.
type CallRecord struct {
	UserID       string  `json:"userID"`
	ModelUsed    string  `json:"modelUsed"`
	CallType     string  `json:"callType"`
	Tokens       int     `json:"tokens"`
	ResponseTime float64 `json:"responseTime"`
	Success      bool    `json:"success"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// EstimateTokens is a whitespace word count over the given texts. Explicitly
// approximate; good enough for usage trends, useless for billing.
func EstimateTokens(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += len(strings.Fields(t))
	}
	return total
}

type Tracker struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.SugaredLogger
	inflight   sync.WaitGroup
}

// NewTracker points at the analytics collaborator. An empty URL disables
// submission but keeps timing and metrics.
func NewTracker(analyticsURL string, log *zap.SugaredLogger) *Tracker {
	endpoint := ""
	if analyticsURL != "" {
		endpoint = strings.TrimSuffix(analyticsURL, "/") + "/ai-call"
	}
	return &Tracker{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: submitTimeout},
		log:        log,
	}
}

type Call struct {
	tracker  *Tracker
	userID   string
	provider string
	callType string
	start    time.Time
}

// Start begins the timer for one inbound call. Finish must run on every exit
// path, normally via defer.
func (t *Tracker) Start(userID, provider, callType string) *Call {
	if callType == "" {
		callType = "unknown"
	}
	return &Call{
		tracker:  t,
		userID:   userID,
		provider: provider,
		callType: callType,
		start:    time.Now(),
	}
}

// Finish stops the timer, estimates tokens over the input and output text,
// records metrics and hands the record to analytics without blocking.
func (c *Call) Finish(modelUsed string, success bool, errMessage string, texts ...string) {
	elapsed := time.Since(c.start)
	tokens := EstimateTokens(texts...)

	status := "success"
	if !success {
		status = "error"
	}
	metrics.RequestDuration.WithLabelValues(c.provider, c.callType).Observe(elapsed.Seconds())
	metrics.RequestCount.WithLabelValues(c.provider, c.callType, status).Inc()
	metrics.EstimatedTokens.WithLabelValues(c.provider, c.callType).Add(float64(tokens))

	record := CallRecord{
		UserID:       c.userID,
		ModelUsed:    modelUsed,
		CallType:     c.callType,
		Tokens:       tokens,
		ResponseTime: elapsed.Seconds(),
		Success:      success,
		ErrorMessage: errMessage,
	}

	if c.tracker.endpoint == "" {
		return
	}
	c.tracker.inflight.Add(1)
	go func() {
		defer c.tracker.inflight.Done()
		c.tracker.submit(record)
	}()
}

func (t *Tracker) submit(record CallRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	body, err := json.Marshal(record)
	if err != nil {
		t.log.Errorw("Failed to marshal call record", "error", err)
		metrics.AnalyticsFailures.Inc()
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.log.Errorw("Failed to build analytics request", "error", err)
		metrics.AnalyticsFailures.Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Warnw("Failed to log AI call", "error", err)
		metrics.AnalyticsFailures.Inc()
		return
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.log.Warnw("Analytics service rejected call record", "error", fmt.Errorf("status %d", res.StatusCode))
		metrics.AnalyticsFailures.Inc()
	}
}

// Drain waits for in-flight submissions, used during graceful shutdown.
func (t *Tracker) Drain() {
	t.inflight.Wait()
}
