package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the service's well-known events with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithRequestID(requestID).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request at a level derived from the status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs).
		WithRequestID(requestID).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogRewardsCalculated(ctx context.Context, customerID, from, to string, totalPoints, months, transactions int) {
	fields := NewFields().
		WithCustomer(customerID).
		WithRange(from, to).
		WithRewards(totalPoints, months, transactions).
		WithOperation(OpCalculate)

	sl.logger.InfoContext(ctx, "Rewards calculated", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogValidationFailed(ctx context.Context, customerID, from, to string, err error) {
	fields := NewFields().
		WithCustomer(customerID).
		WithRange(from, to).
		WithError(err).
		WithErrorType(ErrorTypeValidation).
		WithOperation(OpValidate)

	sl.logger.WarnContext(ctx, "Reward request rejected", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogCustomerNotFound(ctx context.Context, customerID, from, to string) {
	fields := NewFields().
		WithCustomer(customerID).
		WithRange(from, to).
		WithErrorType(ErrorTypeNotFound).
		WithOperation(OpCalculate)

	sl.logger.InfoContext(ctx, "No matching transactions", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.
		WithError(err).
		WithErrorType(ErrorTypeInternal).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
