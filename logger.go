package foodrecipe

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

type LoggerService interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Logger() *slog.Logger
}

type LoggerServiceParams struct {
	fx.In

	Config *Config
}

type LoggerServiceResult struct {
	fx.Out

	LoggerService LoggerService
}

type loggerService struct {
	logger *slog.Logger
}

func NewLoggerService(params LoggerServiceParams) (LoggerServiceResult, error) {
	srv := newLoggerService(os.Stderr, parseLevel(params.Config.LogLevel))
	return LoggerServiceResult{LoggerService: srv}, nil
}

func newLoggerService(w io.Writer, level slog.Level) *loggerService {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return &loggerService{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (srv *loggerService) Debug(msg string, args ...any) {
	srv.logger.Debug(msg, args...)
}

func (srv *loggerService) Info(msg string, args ...any) {
	srv.logger.Info(msg, args...)
}

func (srv *loggerService) Warn(msg string, args ...any) {
	srv.logger.Warn(msg, args...)
}

func (srv *loggerService) Error(msg string, args ...any) {
	srv.logger.Error(msg, args...)
}

func (srv *loggerService) Logger() *slog.Logger {
	return srv.logger
}
