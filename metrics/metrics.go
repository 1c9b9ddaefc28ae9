package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reelify/clip-engine/config"
)

type ClientMetrics struct {
	RetryCount      *prometheus.GaugeVec
	FailureCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// ClipEngineMetrics is the process-wide metric set: job lifecycle counts,
// conversion/download timings, cache occupancy, and the outbound clients
// (reasoning model, speech-to-text) that talk to remote services.
type ClipEngineMetrics struct {
	Version *prometheus.CounterVec

	JobsInFlight       prometheus.Gauge
	JobsSubmittedTotal *prometheus.CounterVec
	JobsCompletedTotal *prometheus.CounterVec
	JobsErroredTotal   *prometheus.CounterVec
	JobCacheSize       prometheus.Gauge

	DownloadDurationSec   *prometheus.HistogramVec
	DownloadBytesTotal    prometheus.Counter
	ConversionDurationSec *prometheus.HistogramVec
	ProbeDurationSec      *prometheus.HistogramVec

	HighlightCandidatesTotal prometheus.Counter
	HighlightSelectedTotal   prometheus.Counter
	ViralScoreDistribution   prometheus.Histogram

	ReasoningClient ClientMetrics
	SpeechClient    ClientMetrics

	HTTPRequestsInFlight prometheus.Gauge
}

var conversionLabels = []string{"quality", "platform", "pipeline", "success"}

func NewMetrics() *ClipEngineMetrics {
	m := &ClipEngineMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "version",
			Help: "Current Git SHA / Tag that's running. Incremented once on app startup.",
		}, []string{"app", "version"}),

		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_flight",
			Help: "A count of the transform jobs currently downloading or converting",
		}),
		JobsSubmittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_submitted_total",
			Help: "Total number of submitted transform jobs",
		}, []string{"quality", "platform"}),
		JobsCompletedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_completed_total",
			Help: "Total number of jobs that reached the completed state",
		}, []string{"quality", "platform"}),
		JobsErroredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_errored_total",
			Help: "Total number of jobs that reached the error state",
		}, []string{"kind"}),
		JobCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "job_cache_size",
			Help: "Number of entries currently held in the job TTL cache",
		}),

		DownloadDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "download_duration_seconds",
			Help:    "Time taken to download a source video",
			Buckets: prometheus.DefBuckets,
		}, []string{"success"}),
		DownloadBytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "download_bytes_total",
			Help: "Total bytes downloaded across all jobs",
		}),
		ConversionDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conversion_duration_seconds",
			Help:    "Time taken for an ffmpeg conversion to complete",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, conversionLabels),
		ProbeDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "probe_duration_seconds",
			Help:    "Time taken for ffprobe to return video info",
			Buckets: prometheus.DefBuckets,
		}, []string{"success"}),

		HighlightCandidatesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "highlight_candidates_total",
			Help: "Total candidate windows produced by the highlight analyzer before selection",
		}),
		HighlightSelectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "highlight_selected_total",
			Help: "Total clips accepted by the highlight selector",
		}),
		ViralScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "viral_score_distribution",
			Help:    "Distribution of virality_coefficient values produced by the viral scorer",
			Buckets: []float64{0.1, 0.25, 0.35, 0.45, 0.55, 0.65, 0.75, 0.8, 0.9, 1.0},
		}),

		ReasoningClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "reasoning_client_retry_count",
				Help: "The number of retried remote-reasoning requests",
			}, []string{"host"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "reasoning_client_failure_count",
				Help: "The total number of failed remote-reasoning requests",
			}, []string{"host", "status_code"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "reasoning_client_request_duration",
				Help:    "Time taken to get a response from the remote reasoning model",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			}, []string{"host"}),
		},
		SpeechClient: ClientMetrics{
			RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
				Name: "speech_client_retry_count",
				Help: "The number of retried speech-to-text requests",
			}, []string{"host"}),
			FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "speech_client_failure_count",
				Help: "The total number of failed speech-to-text requests",
			}, []string{"host", "status_code"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "speech_client_request_duration",
				Help:    "Time taken to get a transcript back from the speech-to-text model",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 180},
			}, []string{"host"}),
		},

		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "A count of the http requests in flight",
		}),
	}

	m.Version.WithLabelValues("clip-engine", config.Version).Inc()

	return m
}

var Metrics = NewMetrics()
