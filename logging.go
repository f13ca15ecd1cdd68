package fauna

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
)

// EnvFaunaDebug names the environment variable controlling DefaultLogger's
// verbosity.
const EnvFaunaDebug = "FAUNACORE_DEBUG"

// Logger is the diagnostic logging surface a Client reports to. The request
// body may be logged at debug level (response bodies are not logged); the
// Authorization header is always redacted first so the secret is never logged.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	LogResponse(requestBody []byte, resp *http.Response)
}

type slogLogger struct {
	logger *slog.Logger
}

func (d slogLogger) Debug(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Debug(msg, args...)
}

func (d slogLogger) Info(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Info(msg, args...)
}

func (d slogLogger) Warn(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Warn(msg, args...)
}

func (d slogLogger) Error(msg string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Error(msg, args...)
}

func (d slogLogger) LogResponse(requestBody []byte, resp *http.Response) {
	if d.logger == nil || resp == nil || resp.Request == nil {
		return
	}

	requestLogger := d.logger.With(
		slog.String("method", resp.Request.Method),
		slog.String("url", resp.Request.URL.String()),
		slog.Int("status", resp.StatusCode))

	headers := resp.Request.Header.Clone()
	if _, found := headers[HeaderAuthorization]; found {
		headers[HeaderAuthorization] = []string{"redacted"}
	}

	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		requestLogger = requestLogger.With(slog.String("requestBody", string(requestBody)))
	}

	requestLogger.With(slog.Any("headers", headers)).Info("HTTP response")
}

// DefaultLogger returns the default Logger: a JSON slog.Logger gated by
// EnvFaunaDebug.
func DefaultLogger() Logger {
	l := slogLogger{}

	if val, found := os.LookupEnv(EnvFaunaDebug); found {
		if level, err := strconv.Atoi(val); err == nil {
			l.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.Level(level),
			}))
		}
	}

	return l
}
