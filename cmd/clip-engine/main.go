// Command clip-engine is the boot shim (§A.3/§C): parses flags/env into
// config's package vars, wires the Job Manager and the two optional
// analyzer dependencies, and mounts the §6 operations onto an httprouter
// Router.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/peterbourgon/ff/v3"

	"github.com/reelify/clip-engine/clients"
	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/download"
	"github.com/reelify/clip-engine/handlers"
	"github.com/reelify/clip-engine/highlight"
	"github.com/reelify/clip-engine/job"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/metrics"
	"github.com/reelify/clip-engine/middleware"
	"github.com/reelify/clip-engine/transcribe"
)

func main() {
	fs := flag.NewFlagSet("clip-engine", flag.ExitOnError)

	httpAddr := fs.String("http-addr", "0.0.0.0:8080", "address to bind the public HTTP API")
	metricsPort := fs.Int("metrics-port", 9090, "port to serve Prometheus /metrics on")
	version := fs.Bool("version", false, "print application version")

	fs.StringVar(&config.TempDir, "temp-dir", config.TempDir, "base of per-job temp trees")
	fs.DurationVar(&config.CacheExpiry, "cache-expiry-seconds", config.CacheExpiry, "job cache TTL")
	fs.DurationVar(&config.CleanupInterval, "cleanup-interval-seconds", config.CleanupInterval, "TTL sweeper period")
	fs.StringVar(&config.DefaultQuality, "default-quality", config.DefaultQuality, "fallback quality when a request omits one")
	fs.StringVar(&config.DefaultPlatform, "default-platform", config.DefaultPlatform, "fallback platform when a request omits one")
	fs.IntVar(&config.DefaultFPS, "default-fps", config.DefaultFPS, "fallback target_fps when a request omits one")
	fs.DurationVar(&config.FfmpegTimeout, "ffmpeg-timeout", config.FfmpegTimeout, "per-subprocess wall-clock cap")
	fs.DurationVar(&config.DownloadTimeout, "download-timeout", config.DownloadTimeout, "connection-establish cap")
	fs.Int64Var(&config.ChunkSize, "chunk-size", config.ChunkSize, "bytes per download read/write")
	fs.Int64Var(&config.MaxVideoSizeMB, "max-video-size-mb", config.MaxVideoSizeMB, "preflight upper bound")
	fs.StringVar(&config.WhisperModel, "whisper-model", config.WhisperModel, "speech-to-text model name")
	fs.DurationVar(&config.WhisperTimeout, "whisper-timeout", config.WhisperTimeout, "per-segment transcription timeout")
	fs.DurationVar(&config.RemoteReasoningTimeout, "remote-reasoning-timeout", config.RemoteReasoningTimeout, "remote reasoning call timeout")
	fs.BoolVar(&config.SubtitlesEnabled, "subtitles-enabled", config.SubtitlesEnabled, "global enable flag for add_subtitles requests")
	fs.IntVar(&config.MaxJobsInFlight, "max-jobs-in-flight", config.MaxJobsInFlight, "cap on concurrently admitted transform submissions")

	fs.Float64Var(&config.ViralScoreThreshold, "viral-score-threshold", config.ViralScoreThreshold, "minimum final_score a highlight candidate must clear")
	fs.Float64Var(&config.MinClipSeparationSeconds, "min-clip-separation-seconds", config.MinClipSeparationSeconds, "minimum gap enforced between accepted highlights")
	fs.Float64Var(&config.OptimalViralDurationMin, "optimal-viral-duration-min", config.OptimalViralDurationMin, "lower bound of the duration sweet spot")
	fs.Float64Var(&config.OptimalViralDurationMax, "optimal-viral-duration-max", config.OptimalViralDurationMax, "upper bound of the duration sweet spot")
	fs.Float64Var(&config.AbsoluteMinClipDuration, "absolute-min-clip-duration", config.AbsoluteMinClipDuration, "hard floor on any accepted clip duration")
	fs.Float64Var(&config.AbsoluteMaxClipDuration, "absolute-max-clip-duration", config.AbsoluteMaxClipDuration, "hard ceiling on any accepted clip duration")
	fs.IntVar(&config.MaxClipsPerVideo, "max-clips-per-video", config.MaxClipsPerVideo, "cap on highlights accepted per video")
	fs.BoolVar(&config.ForceFullCoverage, "force-full-coverage", config.ForceFullCoverage, "force segmentation to cover the entire video instead of sampling")
	fs.Float64Var(&config.AnalysisSegmentDuration, "analysis-segment-duration", config.AnalysisSegmentDuration, "Phase 1 segment window length")
	fs.IntVar(&config.MaxAnalysisSegments, "max-analysis-segments", config.MaxAnalysisSegments, "cap on Phase 1 segments transcribed per video")

	fs.StringVar(&config.ReasoningBaseURL, "reasoning-base-url", config.ReasoningBaseURL, "remote highlight-candidate reasoning endpoint (OpenAI-chat-compatible)")
	fs.StringVar(&config.ReasoningAPIKey, "reasoning-api-key", config.ReasoningAPIKey, "API key for the reasoning endpoint")
	fs.StringVar(&config.ReasoningModel, "reasoning-model", config.ReasoningModel, "model name sent to the reasoning endpoint")
	fs.StringVar(&config.SpeechBaseURL, "speech-base-url", config.SpeechBaseURL, "speech-to-text endpoint Phase 2 submits audio windows to")

	err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("CLIP_ENGINE"))
	if err != nil {
		log.LogNoRequestID("error parsing cli", "err", err)
		os.Exit(1)
	}

	if *version {
		fmt.Printf("clip-engine version: %s", config.Version)
		return
	}

	if err := os.MkdirAll(config.TempDir, 0o755); err != nil {
		log.LogNoRequestID("could not create temp dir", "temp_dir", config.TempDir, "err", err)
		os.Exit(1)
	}

	manager := job.NewManager()

	var transcriber *transcribe.Transcriber
	var reasoner *clients.ReasoningClient
	if config.SpeechBaseURL != "" {
		transcriber = transcribe.New(config.SpeechBaseURL, config.TempDir)
	}
	if config.ReasoningBaseURL != "" && config.ReasoningAPIKey != "" {
		reasoner = clients.NewReasoningClient(config.ReasoningBaseURL, config.ReasoningAPIKey, config.ReasoningModel)
	}

	// transcriber/reasoner are only assigned to their highlight.Transcriber/
	// Reasoner interface variables when actually constructed above, so a nil
	// backend stays a genuinely nil interface for handlers.New's fallback
	// check rather than a non-nil interface wrapping a nil pointer.
	var hTranscriber highlight.Transcriber
	if transcriber != nil {
		hTranscriber = transcriber
	}
	var hReasoner highlight.Reasoner
	if reasoner != nil {
		hReasoner = reasoner
	}

	h := handlers.New(manager, hTranscriber, hReasoner, downloadToTemp)

	router := newRouter(manager, h)

	server := &http.Server{Addr: *httpAddr, Handler: router}

	go func() {
		if err := metrics.ListenAndServe(*metricsPort); err != nil {
			log.LogNoRequestID("metrics server stopped", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.LogNoRequestID("starting clip-engine", "version", config.Version, "addr", *httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogNoRequestID("http server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.LogNoRequestID("error during shutdown", "err", err)
	}
}

// downloadToTemp fetches url into a fresh per-call temp dir via the
// Download Manager, for the two optional clip-AI operations that take a
// source URL directly rather than an already-submitted job.
func downloadToTemp(requestID, url string) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp(config.TempDir, "clipai-*")
	if err != nil {
		return "", nil, err
	}
	dest := dir + "/input"
	if _, err := download.Download(context.Background(), requestID, url, dest, nil); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return dest, func() { os.RemoveAll(dir) }, nil
}

func newRouter(manager *job.Manager, h *handlers.Handlers) *httprouter.Router {
	router := httprouter.New()
	withLogging := middleware.LogRequest()
	capacity := &middleware.CapacityMiddleware{}

	router.GET("/ok", withLogging(h.Ok()))
	router.GET("/healthcheck", withLogging(h.Healthcheck()))
	router.OPTIONS("/api/*any", withLogging(handlers.PreflightOptionsHandler()))

	router.POST("/api/transform", withLogging(capacity.HasCapacity(manager, h.SubmitTransform())))
	router.GET("/api/status/:video_id", withLogging(h.Status()))
	router.GET("/api/download/:video_id", withLogging(h.Download()))
	router.GET("/api/video/:video_id", withLogging(h.Inline()))

	router.GET("/api/capabilities", withLogging(h.Capabilities()))
	router.GET("/api/platform-specs", withLogging(h.PlatformSpecs()))

	router.POST("/api/clips/generate", withLogging(h.ClipGeneration()))
	router.POST("/api/clips/viral-selection", withLogging(h.ViralSelection()))

	return router
}
