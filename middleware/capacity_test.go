package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/reelify/clip-engine/config"
)

type stubCounter struct{ n int }

func (s stubCounter) InFlightCount() int { return s.n }

func TestItCallsNextMiddlewareWhenCapacityAvailable(t *testing.T) {
	req, err := http.NewRequest("POST", "/transform", nil)
	require.NoError(t, err)

	var nextCalled bool
	next := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}

	cm := CapacityMiddleware{}
	handler := cm.HasCapacity(stubCounter{n: 0}, next)
	rr := httptest.NewRecorder()

	handler(rr, req, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, nextCalled)
}

func TestItErrorsWhenNoJobCapacityAvailable(t *testing.T) {
	req, err := http.NewRequest("POST", "/transform", nil)
	require.NoError(t, err)

	var nextCalled bool
	next := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		nextCalled = true
	}

	cm := CapacityMiddleware{}
	handler := cm.HasCapacity(stubCounter{n: config.MaxJobsInFlight}, next)
	rr := httptest.NewRecorder()

	handler(rr, req, nil)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.False(t, nextCalled)
}

// As well as looking at jobs already running, capacity accounting must take
// in-flight HTTP requests into account, otherwise a burst of concurrent
// submissions could all be admitted before any of them registers with the
// Manager.
func TestItTakesIntoAccountInFlightHTTPRequests(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}

	cm := CapacityMiddleware{}
	handler := cm.HasCapacity(stubCounter{n: 0}, next)

	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, _ := errgroup.WithContext(timeout)

	concurrency := config.MaxJobsInFlight + 5
	responseCodes := make([]int, concurrency)
	for i := 0; i < concurrency; i++ {
		i := i
		g.Go(func() error {
			req, err := http.NewRequest("POST", "/transform", nil)
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			handler(rr, req, nil)
			responseCodes[i] = rr.Code
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var rejected int
	for _, code := range responseCodes {
		if code == http.StatusTooManyRequests {
			rejected++
		}
	}
	require.Equal(t, concurrency-config.MaxJobsInFlight, rejected)
}
