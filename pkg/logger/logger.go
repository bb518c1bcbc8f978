package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler is easier to read while developing, JSON for everything else
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewWithHandler builds a logger around an existing handler (used by tests to capture output)
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{Logger: slog.New(h)}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("user_id", userID)),
	}
}

// WithComponent tags every record with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("component", name)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Business logic logging methods

// LogBookingCreated logs when a booking record is written
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, listingID, draftID string) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("listing_id", listingID),
		slog.String("draft_id", draftID),
	)
}

// LogDraftTransition logs a booking draft moving between states
func (l *Logger) LogDraftTransition(ctx context.Context, draftID, from, to string) {
	l.Logger.InfoContext(ctx,
		"Draft Transition",
		slog.String("draft_id", draftID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogPaymentOutcome logs the normalized result of a payment attempt
func (l *Logger) LogPaymentOutcome(ctx context.Context, receipt string, success bool, reason string) {
	if success {
		l.Logger.InfoContext(ctx,
			"Payment Verified",
			slog.String("receipt", receipt),
		)
		return
	}
	l.Logger.WarnContext(ctx,
		"Payment Failed",
		slog.String("receipt", receipt),
		slog.String("reason", reason),
	)
}

// LogEscrowTransition logs an escrow account status change
func (l *Logger) LogEscrowTransition(ctx context.Context, escrowID, from, to string) {
	l.Logger.InfoContext(ctx,
		"Escrow Transition",
		slog.String("escrow_id", escrowID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogIntegrityFailure logs states that need manual reconciliation
func (l *Logger) LogIntegrityFailure(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("error", errString(err)), slog.Bool("requires_reconciliation", true))
	for _, a := range attrs {
		args = append(args, a)
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
