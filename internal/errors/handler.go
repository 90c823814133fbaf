package errors

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Log writes err to logger at the level its severity implies. Generic
// errors (not *AppError) are logged at error level with no further
// context extracted.
func Log(logger *zap.Logger, err error) {
	if err == nil || logger == nil {
		return
	}

	appErr, ok := err.(*AppError)
	if !ok {
		logger.Error("error occurred", zap.Error(err))
		return
	}

	switch appErr.Severity {
	case SeverityError:
		logger.Error(appErr.Message,
			zap.String("type", string(appErr.Type)),
			zap.String("severity", string(appErr.Severity)),
			zap.String("details", appErr.Details),
			zap.Bool("retryable", appErr.Retryable),
			zap.Error(appErr.Err))
	case SeverityWarning:
		logger.Warn(appErr.Message,
			zap.String("type", string(appErr.Type)),
			zap.String("details", appErr.Details),
			zap.Bool("retryable", appErr.Retryable),
			zap.Error(appErr.Err))
	case SeverityInfo:
		logger.Info(appErr.Message,
			zap.String("type", string(appErr.Type)),
			zap.String("details", appErr.Details))
	default:
		logger.Error(appErr.Message, zap.Error(appErr.Err))
	}
}

// LogWithRetry logs err along with the current retry attempt, if any.
func LogWithRetry(logger *zap.Logger, err error, retryCount, maxRetries int) {
	if err == nil {
		return
	}

	retryInfo := ""
	if retryCount > 0 {
		retryInfo = fmt.Sprintf(" (retry %d/%d)", retryCount, maxRetries)
	}

	Log(logger, fmt.Errorf("%w%s", err, retryInfo))
}

// CreateTimeoutError creates a timeout error.
func CreateTimeoutError(operation string, timeout time.Duration) *AppError {
	return New(ErrorTypeAPI, fmt.Sprintf("%s timed out after %v", operation, timeout)).
		WithRetryable(true)
}
