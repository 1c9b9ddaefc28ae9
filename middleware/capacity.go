package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/julienschmidt/httprouter"

	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/metrics"
)

// InFlightCounter reports how many jobs are currently downloading or
// converting; job.Manager satisfies this.
type InFlightCounter interface {
	InFlightCount() int
}

// CapacityMiddleware bounds the number of transform submissions admitted at
// once to config.MaxJobsInFlight (§5 "parallel background workers"), counting
// both jobs already running and HTTP requests currently being accepted so a
// burst of concurrent submissions can't all slip through before any of them
// registers with the Manager.
type CapacityMiddleware struct {
	requestsInFlight atomic.Int64
}

func (c *CapacityMiddleware) HasCapacity(jobs InFlightCounter, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		metrics.Metrics.HTTPRequestsInFlight.Add(1)
		defer metrics.Metrics.HTTPRequestsInFlight.Add(-1)

		inFlightReqs := c.requestsInFlight.Add(1)
		defer c.requestsInFlight.Add(-1)

		if jobs.InFlightCount()+int(inFlightReqs) > config.MaxJobsInFlight {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		next(w, r, ps)
	}
}
