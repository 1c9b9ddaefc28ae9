package log

import (
	"github.com/hashicorp/go-retryablehttp"
)

var _ retryablehttp.LeveledLogger = retryableHTTPLogger{}

// retryableHTTPLogger adapts retryablehttp's leveled logging interface onto
// LogNoRequestID so download/reasoning/speech clients log through the same
// logfmt pipeline as the rest of the service.
type retryableHTTPLogger struct{}

func NewRetryableHTTPLogger() retryablehttp.LeveledLogger {
	return retryableHTTPLogger{}
}

func (r retryableHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	LogNoRequestID(msg, keysAndValues...)
}

func (r retryableHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	LogNoRequestID(msg, keysAndValues...)
}

func (r retryableHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	LogNoRequestID(msg, keysAndValues...)
}

func (r retryableHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {}
