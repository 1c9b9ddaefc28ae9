package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/reelify/clip-engine/log"
)

type Retries struct {
	count          int
	lastStatusCode int
}

// MonitorRequest wraps an outbound retryablehttp-backed client.Do call,
// recording retry counts and failures against clientMetrics.
func MonitorRequest(clientMetrics ClientMetrics, client *http.Client, r *http.Request) (*http.Response, error) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, RetriesKey, &Retries{-1, 0})
	req := r.WithContext(ctx)

	start := time.Now()
	res, err := client.Do(req)
	duration := time.Since(start)

	retries := ctx.Value(RetriesKey).(*Retries)
	if retries.lastStatusCode >= 400 {
		clientMetrics.FailureCount.WithLabelValues(req.URL.Host, fmt.Sprint(retries.lastStatusCode)).Inc()
		return res, err
	}

	clientMetrics.RequestDuration.WithLabelValues(req.URL.Host).Observe(duration.Seconds())
	clientMetrics.RetryCount.WithLabelValues(req.URL.Host).Set(float64(retries.count))

	return res, err
}

func HttpRetryHook(ctx context.Context, res *http.Response, err error) (bool, error) {
	retries, ok := ctx.Value(RetriesKey).(*Retries)
	if !ok {
		return retryablehttp.DefaultRetryPolicy(ctx, res, err)
	}
	if res == nil {
		retries.lastStatusCode = 999
	} else {
		retries.lastStatusCode = res.StatusCode
	}
	retries.count++

	if err != nil {
		log.LogNoRequestID("retrying outbound request", "err", err, "attempt", retries.count)
	}
	return retryablehttp.DefaultRetryPolicy(ctx, res, err)
}
